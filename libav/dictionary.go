package astilibav

import (
	"fmt"

	"github.com/asticode/go-astiav"
)

// Dictionary represents libav options as you would write them in ffmpeg
type Dictionary struct {
	content   string
	flags     astiav.DictionaryFlags
	keyValSep string
	pairsSep  string
}

// NewDictionary creates a new dictionary
func NewDictionary(content, keyValSep, pairsSep string, flags astiav.DictionaryFlags) *Dictionary {
	return &Dictionary{
		content:   content,
		flags:     flags,
		keyValSep: keyValSep,
		pairsSep:  pairsSep,
	}
}

// NewDefaultDictionary creates a dictionary whose pairs look like "k1=v1,k2=v2"
func NewDefaultDictionary(i string) *Dictionary {
	return NewDictionary(i, "=", ",", 0)
}

// NewDefaultDictionaryf is NewDefaultDictionary with formatting
func NewDefaultDictionaryf(format string, args ...interface{}) *Dictionary {
	return NewDictionary(fmt.Sprintf(format, args...), "=", ",", 0)
}

// parse returns a libav dictionary that must be freed by the caller
// It returns nil if there's nothing to parse and no extra options
func (d *Dictionary) parse(extra map[string]string) (dd *astiav.Dictionary, err error) {
	// Nothing to parse
	if d.content == "" && len(extra) == 0 {
		return
	}

	// Create dictionary
	dd = astiav.NewDictionary()

	// Parse content
	if d.content != "" {
		if err = dd.ParseString(d.content, d.keyValSep, d.pairsSep, d.flags); err != nil {
			dd.Free()
			dd = nil
			err = fmt.Errorf("astilibav: parsing dictionary content %q failed: %w", d.content, err)
			return
		}
	}

	// Set extra options
	for k, v := range extra {
		if err = dd.Set(k, v, d.flags); err != nil {
			dd.Free()
			dd = nil
			err = fmt.Errorf("astilibav: setting dictionary option %s=%s failed: %w", k, v, err)
			return
		}
	}
	return
}
