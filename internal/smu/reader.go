package smu

// Reader performs one complete poll: metadata, table bytes, core count
// resolution and decode. It holds no state across calls.
type Reader struct {
	Driver Driver

	// CoreHint returns the authoritative active core count, or 0 when
	// none is known. It is called once per Read. Nil means no hint.
	CoreHint func() int

	// Registry overrides the built-in layouts when non-nil.
	Registry *Registry
}

// NewReader returns a Reader over d using hint for core counts.
func NewReader(d Driver, hint func() int) *Reader {
	return &Reader{Driver: d, CoreHint: hint}
}

// Read reads and decodes the current PM table.
func (r *Reader) Read() (*Snapshot, error) {
	version, err := r.Driver.TableVersion()
	if err != nil {
		return nil, err
	}
	id, err := r.Driver.CodenameID()
	if err != nil {
		return nil, err
	}
	data, err := r.Driver.TableBytes()
	if err != nil {
		return nil, err
	}

	hint := 0
	if r.CoreHint != nil {
		hint = r.CoreHint()
	}
	cores, _, err := ResolveCoreCount(hint, id)
	if err != nil {
		return nil, err
	}

	registry := Layouts
	if r.Registry != nil {
		registry = *r.Registry
	}
	return registry.Decode(data, version, CodenameFromID(id), cores)
}
