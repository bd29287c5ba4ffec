package intents

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Intent is the set of operations an API key may perform.
type Intent struct {
	Distribute bool `json:"distribute"` // Run distributions.
	Settings   bool `json:"settings"`   // Replace the live distribution settings.
}

// All grants every intent.
var All = Intent{Distribute: true, Settings: true}

func (i Intent) MarshalText() ([]byte, error) {
	// Marshal as a comma separated list.
	var parts []string
	v := reflect.ValueOf(i)
	t := reflect.TypeOf(i)
	for idx := 0; idx < v.NumField(); idx++ {
		if v.Field(idx).Bool() {
			if tag := t.Field(idx).Tag.Get("json"); tag != "" {
				parts = append(parts, tag)
			}
		}
	}
	return []byte(strings.Join(parts, ",")), nil
}

func (i *Intent) UnmarshalText(data []byte) error {
	str := strings.Trim(strings.TrimSpace(string(data)), "\"")
	if str == "" {
		return nil
	}

	t := reflect.TypeOf(*i)
	v := reflect.ValueOf(i).Elem()

	for _, part := range strings.Split(str, ",") {
		part = strings.TrimSpace(part)
		if part == "*" {
			*i = All
			continue
		}
		found := false
		for idx := 0; idx < t.NumField(); idx++ {
			if t.Field(idx).Tag.Get("json") == part {
				v.Field(idx).SetBool(true)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown intent %q", part)
		}
	}
	return nil
}

func (i Intent) PackAsBits() int {
	var bits int
	v := reflect.ValueOf(i)
	for idx := 0; idx < v.NumField(); idx++ {
		if v.Field(idx).Bool() {
			bits |= 1 << idx
		}
	}
	return bits
}

func (i Intent) UnpackFromBits(bits int) Intent {
	var intent Intent
	v := reflect.ValueOf(&intent).Elem()
	for idx := 0; idx < v.NumField(); idx++ {
		if bits&(1<<idx) != 0 {
			v.Field(idx).SetBool(true)
		}
	}
	return intent
}

// String packs the intent as bits. No intents is the empty string.
func (i Intent) String() string {
	bits := i.PackAsBits()
	if bits == 0 {
		return ""
	}
	return strconv.Itoa(bits)
}

func IntentFromString(s string) (Intent, error) {
	if s == "" {
		return Intent{}, nil
	}
	bits, err := strconv.Atoi(s)
	if err != nil {
		return Intent{}, err
	}
	return Intent{}.UnpackFromBits(bits), nil
}

type ctxIntentKey struct{}

func NewContext(ctx context.Context, intent Intent) context.Context {
	return context.WithValue(ctx, ctxIntentKey{}, intent)
}

// FromContext returns the intent attached to ctx, if any.
func FromContext(ctx context.Context) (Intent, bool) {
	intent, ok := ctx.Value(ctxIntentKey{}).(Intent)
	return intent, ok
}
