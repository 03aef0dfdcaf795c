package client

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pthm/hxboundary"
	"golang.org/x/net/html"
)

// Location is the byte range of a marker comment in the source document.
type Location struct {
	Offset int
	Length int
}

// End returns the offset just past the comment.
func (l Location) End() int {
	return l.Offset + l.Length
}

// Descriptor is one boundary found in a document.
type Descriptor struct {
	// Kind is hxboundary.ServerMarkerType or hxboundary.WebAssemblyMarkerType.
	Kind string

	// Sequence identifies the boundary among markers of the same kind.
	// Server boundaries use the sequence sealed in their descriptor, which
	// session hosts refer to them by; webassembly boundaries use their
	// document-order index.
	Sequence int

	Marker *hxboundary.DecodedMarker

	// Start is the start marker comment. End is the end marker comment for
	// prerendered boundaries and nil otherwise.
	Start Location
	End   *Location

	state State
}

// Key returns the marker's stable key.
func (d *Descriptor) Key() string {
	if d.Marker.Key == nil {
		return ""
	}
	return *d.Marker.Key
}

// Prerendered reports whether server output sits between the markers.
func (d *Descriptor) Prerendered() bool {
	return d.End != nil
}

// Content returns the prerendered range between the two markers. ok is
// false for non-prerendered boundaries.
func (d *Descriptor) Content() (l Location, ok bool) {
	if d.End == nil {
		return Location{}, false
	}
	return Location{Offset: d.Start.End(), Length: d.End.Offset - d.Start.End()}, true
}

// State returns the boundary's current lifecycle state.
func (d *Descriptor) State() State {
	return d.state
}

// Advance moves the descriptor to next.
func (d *Descriptor) Advance(next State) error {
	s, err := d.state.Advance(next)
	if err != nil {
		return fmt.Errorf("boundary %s#%d: %w", d.Kind, d.Sequence, err)
	}
	d.state = s
	return nil
}

// Record returns the start record sent to the session host. Only server
// descriptors have one.
func (d *Descriptor) Record() (hxboundary.StartRecord, error) {
	if d.Kind != hxboundary.ServerMarkerType {
		return hxboundary.StartRecord{}, fmt.Errorf("client: %s boundary has no session record", d.Kind)
	}
	return hxboundary.StartRecord{
		Type:        d.Kind,
		Sequence:    *d.Marker.Sequence,
		Descriptor:  *d.Marker.Descriptor,
		Key:         d.Marker.Key,
		PrerenderID: d.Marker.PrerenderID,
	}, nil
}

// Document holds the boundaries discovered in one page. Server boundaries
// are ordered by sequence, webassembly boundaries by document order.
type Document struct {
	Server      []*Descriptor
	WebAssembly []*Descriptor
}

// Len returns the total number of boundaries.
func (d *Document) Len() int {
	return len(d.Server) + len(d.WebAssembly)
}

// Discover tokenizes a rendered document and collects its boundary markers.
//
// End records must close the most recently opened prerendered start record;
// anything else fails with ErrUnmatchedEndMarker. A prerendered start record
// left open at the end of the document fails with ErrUnclosedMarker.
// Comments inside raw text elements such as <script> are not markup and are
// ignored.
//
// A boundary nested in prerendered output renders before its parent, so
// server sequences do not follow document order. Two server markers with
// the same sequence fail with ErrDuplicateSequence.
func Discover(r io.Reader) (*Document, error) {
	z := html.NewTokenizer(r)
	doc := &Document{}

	var (
		offset int
		open   []*Descriptor
	)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("client: tokenize document: %w", err)
			}
			break
		}

		loc := Location{Offset: offset, Length: len(z.Raw())}
		offset += loc.Length
		if tt != html.CommentToken {
			continue
		}

		m, ok, err := hxboundary.ParseComment(string(z.Text()))
		if err != nil {
			return nil, fmt.Errorf("client: marker at offset %d: %w", loc.Offset, err)
		}
		if !ok {
			continue
		}

		if m.IsEnd() {
			top := len(open) - 1
			if top < 0 || *open[top].Marker.PrerenderID != *m.PrerenderID {
				return nil, fmt.Errorf("%w: prerenderId %q at offset %d", ErrUnmatchedEndMarker, *m.PrerenderID, loc.Offset)
			}
			end := loc
			open[top].End = &end
			open = open[:top]
			continue
		}

		d := &Descriptor{Kind: m.Kind(), Marker: m, Start: loc}
		switch d.Kind {
		case hxboundary.ServerMarkerType:
			d.Sequence = *m.Sequence
			doc.Server = append(doc.Server, d)
		case hxboundary.WebAssemblyMarkerType:
			d.Sequence = len(doc.WebAssembly)
			doc.WebAssembly = append(doc.WebAssembly, d)
		}
		if m.PrerenderID != nil {
			d.state = Prerendered
			open = append(open, d)
		}
	}

	if len(open) > 0 {
		d := open[len(open)-1]
		return nil, fmt.Errorf("%w: %s marker at offset %d", ErrUnclosedMarker, d.Kind, d.Start.Offset)
	}

	slices.SortStableFunc(doc.Server, func(a, b *Descriptor) int {
		return cmp.Compare(a.Sequence, b.Sequence)
	})
	for i := 1; i < len(doc.Server); i++ {
		if doc.Server[i].Sequence == doc.Server[i-1].Sequence {
			return nil, fmt.Errorf("%w: %d at offset %d", ErrDuplicateSequence, doc.Server[i].Sequence, doc.Server[i].Start.Offset)
		}
	}
	return doc, nil
}

// DiscoverString is Discover for an in-memory document.
func DiscoverString(document string) (*Document, error) {
	return Discover(strings.NewReader(document))
}
