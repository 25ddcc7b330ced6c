package model

import "regexp"

var placeholderPattern = regexp.MustCompile(`^YOUR_|^XXX+$|^000+$|^\s*$`)

// IsPlaceholder reports whether a credential value is a template placeholder
func IsPlaceholder(v string) bool {
	return placeholderPattern.MatchString(v)
}

// Credential holds vendor specific secrets keyed by field name
type Credential map[string]string

// Empty reports whether every value is missing or a placeholder
func (c Credential) Empty() bool {
	for _, v := range c {
		if !IsPlaceholder(v) {
			return false
		}
	}
	return true
}

// Require checks the named fields are present and not placeholders
func (c Credential) Require(vendor Vendor, fields ...string) error {
	for _, f := range fields {
		v, ok := c[f]
		if !ok {
			return NewConfigurationError(vendor, f, "credential field is missing")
		}
		if IsPlaceholder(v) {
			return NewConfigurationError(vendor, f, "credential field is a placeholder")
		}
	}
	return nil
}

// VendorCredentials holds the credential set for each mode
type VendorCredentials struct {
	Test       Credential `json:"test" mapstructure:"test"`
	Production Credential `json:"production" mapstructure:"production"`
}

// For returns the credential for a mode, or nil when none is configured
func (vc VendorCredentials) For(mode Mode) Credential {
	c := vc.Test
	if mode == ModeProduction {
		c = vc.Production
	}
	if c == nil || c.Empty() {
		return nil
	}
	return c
}
