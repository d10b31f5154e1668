package smu

// CoreCountSource records where a resolved core count came from.
type CoreCountSource int

const (
	// SourceHint is an externally supplied active-core count (OS
	// enumeration or an explicit override).
	SourceHint CoreCountSource = iota + 1
	// SourceTopology is CoresPerDie × MaxDies of the codename.
	SourceTopology
)

func (s CoreCountSource) String() string {
	switch s {
	case SourceHint:
		return "hint"
	case SourceTopology:
		return "topology"
	}
	return "unknown"
}

// ResolveCoreCount picks the number of per-core slots to decode. A
// positive hint wins; otherwise the topology of codename id is used.
//
// An unresolvable id with no hint fails with KindCoreCountUnknown
// wrapping a KindUnsupportedProcessor error, so callers can match
// either with errors.Is.
func ResolveCoreCount(hint int, codenameID uint32) (int, CoreCountSource, error) {
	if hint > 0 {
		return hint, SourceHint, nil
	}
	c := CodenameFromID(codenameID)
	if !c.Supported() {
		return 0, 0, &Error{
			Kind: KindCoreCountUnknown,
			Err:  &Error{Kind: KindUnsupportedProcessor, ProcessorID: codenameID},
		}
	}
	if n := c.Topology().Cores(); n > 0 {
		return n, SourceTopology, nil
	}
	return 0, 0, &Error{Kind: KindCoreCountUnknown}
}
