package core

import "errors"

// StreamValidator tracks the structural records of a whole run.
type StreamValidator struct {
	headerSeen bool
	footerSeen bool
}

// MarkHeader records that a 100 record was seen.
func (v *StreamValidator) MarkHeader() { v.headerSeen = true }

// MarkFooter records that a 900 record was seen.
func (v *StreamValidator) MarkFooter() { v.footerSeen = true }

// HeaderSeen reports whether a 100 record was seen.
func (v *StreamValidator) HeaderSeen() bool { return v.headerSeen }

// FooterSeen reports whether a 900 record was seen.
func (v *StreamValidator) FooterSeen() bool { return v.footerSeen }

// Err returns ErrMissingHeader and/or ErrMissingFooter, joined, or nil.
func (v *StreamValidator) Err() error {
	var errs []error
	if !v.headerSeen {
		errs = append(errs, ErrMissingHeader)
	}
	if !v.footerSeen {
		errs = append(errs, ErrMissingFooter)
	}
	return errors.Join(errs...)
}
