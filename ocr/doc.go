// Package ocr recognizes text on rendered pages for documents whose pages
// carry no extractable text. Engines are pluggable; the tesseract
// subpackage registers a gosseract backed default.
package ocr
