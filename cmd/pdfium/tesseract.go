//go:build tesseract

package main

import _ "github.com/wudi/pdfium/ocr/tesseract"
