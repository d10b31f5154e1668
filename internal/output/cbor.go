package output

import (
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/hartyporpoise/smusensors/internal/smu"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2): the same
// snapshot always produces identical bytes. Floats are shortened only
// where lossless. Codename goes out as its display name.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("output: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("output: CBOR decoder initialization failed: " + err.Error())
	}
}

// MarshalCBOR encodes snap. Field names follow the JSON tags; NaN
// stays NaN.
func MarshalCBOR(snap *smu.Snapshot) ([]byte, error) {
	return encMode.Marshal(snap)
}

// EncodeCBOR writes one CBOR data item for snap to w.
func EncodeCBOR(w io.Writer, snap *smu.Snapshot) error {
	return encMode.NewEncoder(w).Encode(snap)
}

// UnmarshalCBOR decodes data written by MarshalCBOR.
func UnmarshalCBOR(data []byte, snap *smu.Snapshot) error {
	return decMode.Unmarshal(data, snap)
}
