package config

// SecretStringValue replaces secrets in any output.
const SecretStringValue = "<secret>"

// SecretString is used for passwords and keys: value is available with plain
// conversion to string but never shows up when marshaled, formatted or logged.
type SecretString string

// String implements fmt.Stringer.
func (s SecretString) String() string {
	if len(s) == 0 {
		return ""
	}
	return SecretStringValue
}

// MarshalJSON implements json.Marshaler.
func (s SecretString) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte("\"" + SecretStringValue + "\""), nil
}

// MarshalYAML implements yaml.Marshaler.
func (s SecretString) MarshalYAML() (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return SecretStringValue, nil
}
