package log

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// An event log is a bare sequence of CBOR items, one Event each, appended
// without length prefixes. Timestamps keep nanoseconds.
var (
	eventEnc = mustMode(cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode())

	eventDec = mustMode(cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode())
)

func mustMode[M any](mode M, err error) M {
	if err != nil {
		panic("log: invalid cbor options: " + err.Error())
	}
	return mode
}

// newEventEncoder returns an encoder appending events to w.
func newEventEncoder(w io.Writer) *cbor.Encoder {
	return eventEnc.NewEncoder(w)
}

// newEventDecoder returns a decoder reading successive events from r.
func newEventDecoder(r io.Reader) *cbor.Decoder {
	return eventDec.NewDecoder(r)
}
