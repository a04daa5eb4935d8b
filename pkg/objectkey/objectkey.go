// Package objectkey derives remote object keys for uploaded files.
//
// A derived key has the form
//
//	<prefix>/<stem>-<unix millis>-<random><ext>
//
// where stem is the file's base name with every rune outside [A-Za-z0-9]
// replaced by '-', and ext is the original extension. The millisecond
// timestamp and a random integer below 1e9 make collisions between
// concurrent uploads unlikely without any coordination.
package objectkey

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
)

// DefaultPrefix is the namespace uploads are written under.
const DefaultPrefix = "drive-uploads"

// randomBound is the exclusive upper bound of the random component.
const randomBound = 1_000_000_000

// Deriver generates keys. The zero value is not usable; call NewDeriver.
type Deriver struct {
	prefix string

	mu      sync.Mutex
	now     func() time.Time
	randInt func(n int) int
}

// NewDeriver creates a deriver writing under prefix. An empty prefix
// selects DefaultPrefix. Slashes around the prefix are trimmed.
func NewDeriver(prefix string) *Deriver {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Deriver{
		prefix:  prefix,
		now:     time.Now,
		randInt: rand.IntN,
	}
}

// Prefix returns the key namespace, without a trailing slash.
func (d *Deriver) Prefix() string {
	return d.prefix
}

// SetClock replaces the time source. Used by tests.
func (d *Deriver) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// SetRand replaces the random source. fn must return a value in [0, n).
func (d *Deriver) SetRand(fn func(n int) int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.randInt = fn
}

// Derive returns a fresh key for originalName. It never fails.
func (d *Deriver) Derive(originalName string) string {
	d.mu.Lock()
	millis := d.now().UnixMilli()
	r := d.randInt(randomBound)
	d.mu.Unlock()

	return d.prefix + "/" + Build(originalName, millis, r)
}

// Build assembles the part of a key below the prefix from its inputs.
func Build(originalName string, millis int64, random int) string {
	stem, ext := SplitName(originalName)

	var b strings.Builder
	b.Grow(len(stem) + len(ext) + 32)
	if stem != "" {
		b.WriteString(Sanitize(stem))
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatInt(millis, 10))
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(random))
	b.WriteString(cleanExt(ext))
	return b.String()
}

// SplitName takes the base name of name (on both '/' and '\') and splits
// it into stem and extension. Names that start with a dot and have no
// other dot, like ".env", have no extension.
func SplitName(name string) (stem, ext string) {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	rest := strings.TrimLeft(name, ".")
	lead := len(name) - len(rest)

	dot := strings.LastIndexByte(rest, '.')
	if dot <= 0 {
		return name, ""
	}
	return name[:lead+dot], name[lead+dot:]
}

// Sanitize replaces every rune outside [A-Za-z0-9] with '-'.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if isAlnum(r) {
			return r
		}
		return '-'
	}, s)
}

// cleanExt keeps the extension as is except for control characters,
// which object stores reject.
func cleanExt(ext string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return '-'
		}
		return r
	}, ext)
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
