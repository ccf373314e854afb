// Package data captures task readings on an interval and streams them to a CBOR file.
package data

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"go.viam.com/daqmx/task"
)

// A Reading is one capture from a task. Values holds SamplesPerChannel samples for each channel,
// laid out according to Fill.
type Reading struct {
	Task              string            `cbor:"1,keyasint"`
	Sequence          uint64            `cbor:"2,keyasint"`
	Timestamp         time.Time         `cbor:"3,keyasint"`
	Channels          []string          `cbor:"4,keyasint"`
	SamplesPerChannel int               `cbor:"5,keyasint"`
	Fill              task.DataFillMode `cbor:"6,keyasint"`
	Values            []float64         `cbor:"7,keyasint"`
}

// Channel returns the samples of the i-th channel in acquisition order.
func (r *Reading) Channel(i int) ([]float64, error) {
	nChans := len(r.Channels)
	if i < 0 || i >= nChans {
		return nil, errors.Errorf("channel index %d out of range for %d channels", i, nChans)
	}
	if len(r.Values) < nChans*r.SamplesPerChannel {
		return nil, errors.Errorf("reading holds %d values, want %d", len(r.Values), nChans*r.SamplesPerChannel)
	}
	out := make([]float64, r.SamplesPerChannel)
	for s := range out {
		if r.Fill == task.GroupByScanNumber {
			out[s] = r.Values[s*nChans+i]
		} else {
			out[s] = r.Values[i*r.SamplesPerChannel+s]
		}
	}
	return out, nil
}

var (
	readingEncMode cbor.EncMode
	readingDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	readingEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create reading CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	readingDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create reading CBOR decoder mode: %v", err))
	}
}

// NewEncoder returns an encoder that writes readings to w back to back.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return readingEncMode.NewEncoder(w)
}

// ReadCaptures decodes every reading in a capture stream.
func ReadCaptures(r io.Reader) ([]Reading, error) {
	dec := readingDecMode.NewDecoder(r)
	var readings []Reading
	for {
		var reading Reading
		if err := dec.Decode(&reading); err != nil {
			if errors.Is(err, io.EOF) {
				return readings, nil
			}
			return readings, errors.Wrapf(err, "cannot decode reading %d", len(readings))
		}
		readings = append(readings, reading)
	}
}
