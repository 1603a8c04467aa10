package ocr

import "testing"

func TestEngineOptions(t *testing.T) {
	tests := []struct {
		name      string
		psm       int
		whitelist string
		want      map[string]string
	}{
		{"defaults", -1, "", nil},
		{"psm", 6, "", map[string]string{VarPageSegMode: "6"}},
		{"whitelist", -1, "0123456789", map[string]string{VarWhitelist: "0123456789"}},
		{"both", 0, "AB", map[string]string{VarPageSegMode: "0", VarWhitelist: "AB"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in Input
			for _, opt := range EngineOptions(tt.psm, tt.whitelist) {
				opt(&in)
			}
			if len(in.Metadata) != len(tt.want) {
				t.Fatalf("Metadata = %v, want %v", in.Metadata, tt.want)
			}
			for k, v := range tt.want {
				if in.Metadata[k] != v {
					t.Fatalf("Metadata[%s] = %q, want %q", k, in.Metadata[k], v)
				}
			}
		})
	}
}

func TestOptionsKeepMetadata(t *testing.T) {
	in := Input{}
	WithMetadata(map[string]string{"user_words_suffix": "words"})(&in)
	WithPageSegMode(11)(&in)
	if in.Metadata["user_words_suffix"] != "words" || in.Metadata[VarPageSegMode] != "11" {
		t.Fatalf("Metadata = %v", in.Metadata)
	}
}
