package ocr

import "strconv"

// Tesseract variables set through Input.Metadata.
const (
	VarPageSegMode = "tessedit_pageseg_mode"
	VarWhitelist   = "tessedit_char_whitelist"
)

func withVariable(key, value string) InputOption {
	return func(in *Input) {
		if in.Metadata == nil {
			in.Metadata = make(map[string]string)
		}
		in.Metadata[key] = value
	}
}

// WithPageSegMode sets the tesseract page segmentation mode. Negative
// modes leave the engine default in place.
func WithPageSegMode(mode int) InputOption {
	if mode < 0 {
		return func(*Input) {}
	}
	return withVariable(VarPageSegMode, strconv.Itoa(mode))
}

// WithWhitelist restricts recognition to chars. An empty set allows
// everything.
func WithWhitelist(chars string) InputOption {
	if chars == "" {
		return func(*Input) {}
	}
	return withVariable(VarWhitelist, chars)
}

// EngineOptions returns the input options for a page segmentation mode and
// a character whitelist as read from configuration.
func EngineOptions(psm int, whitelist string) []InputOption {
	return []InputOption{WithPageSegMode(psm), WithWhitelist(whitelist)}
}
