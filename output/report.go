package output

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"fortio.org/safecast"

	qir "github.com/wippyai/qir-runtime"
)

// Entry kinds.
const (
	KindArray  = "array"
	KindTuple  = "tuple"
	KindResult = "result"
	KindBool   = "bool"
	KindInt    = "int"
)

// Entry is one recorded output. Value is the element count for arrays and
// tuples, the measured bit for results, and the value itself otherwise.
type Entry struct {
	Kind  string `json:"kind" msgpack:"kind"`
	Tag   string `json:"tag,omitempty" msgpack:"tag,omitempty"`
	Value int64  `json:"value" msgpack:"value"`
}

// Shot is the output of one Run.
type Shot struct {
	Entries []Entry `json:"entries" msgpack:"entries"`
}

// Bits returns the measured results of the shot as a bit string, in
// recording order.
func (s Shot) Bits() string {
	var b strings.Builder
	for _, e := range s.Entries {
		if e.Kind == KindResult {
			b.WriteByte(byte('0' + e.Value))
		}
	}
	return b.String()
}

// Reader reads measured results. Quantum backends satisfy it.
type Reader interface {
	ReadResult(r qir.Result) (qir.QState, error)
}

// Report is an output backend collecting records across shots. Records of
// the current shot are buffered until Commit.
//
// A Report may be shared by concurrent executors only if each goroutine
// commits its own shots; records of different Runs must not interleave.
type Report struct {
	mu      sync.Mutex
	reader  Reader
	current []Entry
	shots   []Shot
	last    *Shot
	counts  map[string]int
	keep    bool
}

// ReportOption configures a Report.
type ReportOption func(*Report)

// KeepShots retains every committed shot instead of only the counts.
func KeepShots() ReportOption {
	return func(r *Report) {
		r.keep = true
	}
}

// NewReport creates a report reading measurement outcomes from reader.
func NewReport(reader Reader, opts ...ReportOption) *Report {
	r := &Report{reader: reader, counts: map[string]int{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetReader changes where outcomes are read from.
func (r *Report) SetReader(reader Reader) {
	r.mu.Lock()
	r.reader = reader
	r.mu.Unlock()
}

func (r *Report) add(e Entry) {
	r.mu.Lock()
	r.current = append(r.current, e)
	r.mu.Unlock()
}

func tagText(tag qir.Tag) string {
	s, _ := tag.Get()
	return s
}

func (r *Report) ArrayRecordOutput(n qir.SizeType, tag qir.Tag) error {
	return r.container(KindArray, n, tag)
}

func (r *Report) TupleRecordOutput(n qir.SizeType, tag qir.Tag) error {
	return r.container(KindTuple, n, tag)
}

func (r *Report) container(kind string, n qir.SizeType, tag qir.Tag) error {
	v, err := safecast.Conv[int64](n)
	if err != nil {
		return fmt.Errorf("%s of %d elements: %w", kind, n, err)
	}
	r.add(Entry{Kind: kind, Tag: tagText(tag), Value: v})
	return nil
}

// ResultRecordOutput reads res from the report's reader and records it.
func (r *Report) ResultRecordOutput(res qir.Result, tag qir.Tag) error {
	r.mu.Lock()
	reader := r.reader
	r.mu.Unlock()
	if reader == nil {
		return fmt.Errorf("no reader to resolve %s", res)
	}
	v, err := reader.ReadResult(res)
	if err != nil {
		return err
	}
	var bit int64
	if v == qir.One {
		bit = 1
	}
	r.add(Entry{Kind: KindResult, Tag: tagText(tag), Value: bit})
	return nil
}

func (r *Report) BoolRecordOutput(v bool, tag qir.Tag) error {
	var n int64
	if v {
		n = 1
	}
	r.add(Entry{Kind: KindBool, Tag: tagText(tag), Value: n})
	return nil
}

func (r *Report) IntRecordOutput(v int64, tag qir.Tag) error {
	r.add(Entry{Kind: KindInt, Tag: tagText(tag), Value: v})
	return nil
}

// Commit closes the current shot and counts it.
func (r *Report) Commit() Shot {
	r.mu.Lock()
	defer r.mu.Unlock()
	shot := Shot{Entries: r.current}
	r.current = nil
	r.counts[shot.Bits()]++
	r.last = &shot
	if r.keep {
		r.shots = append(r.shots, shot)
	}
	return shot
}

// Discard drops the records of the current shot.
func (r *Report) Discard() {
	r.mu.Lock()
	r.current = nil
	r.mu.Unlock()
}

// Count is the number of shots that produced Bits.
type Count struct {
	Bits  string `json:"bits" msgpack:"bits"`
	Shots int    `json:"shots" msgpack:"shots"`
}

// Summary is the serializable form of a report.
type Summary struct {
	Source string  `json:"source,omitempty" msgpack:"source,omitempty"`
	Entry  string  `json:"entry,omitempty" msgpack:"entry,omitempty"`
	Shots  int     `json:"shots" msgpack:"shots"`
	Counts []Count `json:"counts" msgpack:"counts"`
	Last   *Shot   `json:"last,omitempty" msgpack:"last,omitempty"`
	All    []Shot  `json:"all,omitempty" msgpack:"all,omitempty"`
}

// Summary returns the counts ordered by bit string and the last shot, plus
// every shot when the report keeps them.
func (r *Report) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s Summary
	for _, bits := range slices.Sorted(maps.Keys(r.counts)) {
		n := r.counts[bits]
		s.Counts = append(s.Counts, Count{Bits: bits, Shots: n})
		s.Shots += n
	}
	if r.last != nil {
		last := *r.last
		s.Last = &last
	}
	if r.keep {
		s.All = slices.Clone(r.shots)
	}
	return s
}
