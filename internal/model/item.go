package model

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// Kind is the catalog item variant.
type Kind int

const (
	KindBook Kind = iota
	KindVideo
	KindAudio
	KindEbook
)

// Kinds lists every variant in listing order.
var Kinds = []Kind{KindBook, KindVideo, KindAudio, KindEbook}

func (k Kind) String() string {
	switch k {
	case KindBook:
		return "book"
	case KindVideo:
		return "dvd"
	case KindAudio:
		return "cd"
	case KindEbook:
		return "ebook"
	default:
		return "unknown"
	}
}

// ParseKind maps a textual variant onto Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "book", "libro":
		return KindBook, true
	case "dvd", "video":
		return KindVideo, true
	case "cd", "audio":
		return KindAudio, true
	case "ebook":
		return KindEbook, true
	default:
		return 0, false
	}
}

// BookDetails is the payload of KindBook.
type BookDetails struct {
	Pages int
	Genre string
	ISBN  string
}

// VideoDetails is the payload of KindVideo.
type VideoDetails struct {
	RuntimeMinutes int
	Rating         string // "+N"
}

// AudioDetails is the payload of KindAudio.
type AudioDetails struct {
	RuntimeMinutes int
	Genre          string
	UPC            string
}

// EbookDetails is the payload of KindEbook.
type EbookDetails struct {
	Format string
	SizeMB float64
}

// Item is a loanable catalog entry. Exactly one payload pointer is set, matching Kind.
type Item struct {
	ID     uuid.UUID
	Title  string
	Author string
	Stock  int // available copies, never negative

	Kind  Kind
	Book  *BookDetails
	Video *VideoDetails
	Audio *AudioDetails
	Ebook *EbookDetails
}

// Validate checks required fields and that the payload matches Kind.
func (it *Item) Validate() error {
	if strings.TrimSpace(it.Title) == "" || strings.TrimSpace(it.Author) == "" {
		return errors.New("title and author are required")
	}
	if it.Stock < 0 {
		return errors.New("negative stock")
	}
	set := 0
	for _, ok := range []bool{it.Book != nil, it.Video != nil, it.Audio != nil, it.Ebook != nil} {
		if ok {
			set++
		}
	}
	if set > 1 {
		return errors.New("more than one variant payload")
	}
	var ok bool
	switch it.Kind {
	case KindBook:
		ok = it.Book != nil
	case KindVideo:
		ok = it.Video != nil
	case KindAudio:
		ok = it.Audio != nil
	case KindEbook:
		ok = it.Ebook != nil
	default:
		return errors.New("unknown item kind")
	}
	if !ok {
		return errors.New("payload does not match kind " + it.Kind.String())
	}
	return nil
}

// SameTitle reports whether other shares the dedup key (title, author, kind), ignoring case.
func (it *Item) SameTitle(other *Item) bool {
	return it.Kind == other.Kind &&
		strings.EqualFold(it.Title, other.Title) &&
		strings.EqualFold(it.Author, other.Author)
}

// MinimumAge returns the age rating of a video item.
// Non-video items and ratings that are not a number after stripping "+" are unrestricted.
func (it *Item) MinimumAge() (int, bool) {
	if it.Kind != KindVideo || it.Video == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(it.Video.Rating), "+"))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (it *Item) Clone() *Item {
	c := *it
	if it.Book != nil {
		b := *it.Book
		c.Book = &b
	}
	if it.Video != nil {
		v := *it.Video
		c.Video = &v
	}
	if it.Audio != nil {
		a := *it.Audio
		c.Audio = &a
	}
	if it.Ebook != nil {
		e := *it.Ebook
		c.Ebook = &e
	}
	return &c
}
