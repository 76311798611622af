// Package mediatypes defines the MIME types the sanitization pipeline
// accepts and how each type maps to a processing kind and an output
// file extension.
package mediatypes
