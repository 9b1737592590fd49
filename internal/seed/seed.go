// Package seed loads initial persons and catalog items from a YAML file and
// registers them through the library service.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/and161185/library-keeper/internal/errs"
	"github.com/and161185/library-keeper/internal/model"
	"github.com/and161185/library-keeper/internal/service"
)

// File is the seed document.
type File struct {
	Persons []Person `yaml:"persons"`
	Items   []Item   `yaml:"items"`
}

// Person is one seeded account.
type Person struct {
	Role       string `yaml:"role"`
	Name       string `yaml:"name"`
	Email      string `yaml:"email"`
	Age        int    `yaml:"age"`
	Secret     string `yaml:"secret"`
	EmployeeID string `yaml:"employee_id"`
	Shift      string `yaml:"shift"`
}

// Item is one seeded catalog entry. Only the fields of its kind are used.
type Item struct {
	Kind   string `yaml:"kind"`
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Stock  int    `yaml:"stock"`

	Pages          int     `yaml:"pages"`
	Genre          string  `yaml:"genre"`
	ISBN           string  `yaml:"isbn"`
	RuntimeMinutes int     `yaml:"runtime_minutes"`
	Rating         string  `yaml:"rating"`
	UPC            string  `yaml:"upc"`
	Format         string  `yaml:"format"`
	SizeMB         float64 `yaml:"size_mb"`
}

// Registrar is the part of the library service the seeder needs.
type Registrar interface {
	RegisterPerson(ctx context.Context, in service.NewPerson) (*model.Person, error)
	AddItem(ctx context.Context, it model.Item) (*model.Item, bool, error)
}

// Result counts what Apply did.
type Result struct {
	Persons int
	Skipped int
	Items   int
	Merged  int
}

// Parse decodes a seed document; unknown fields are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

// LoadFile reads and parses the seed file at path.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Apply registers every person and item in f. Persons whose email is already
// taken are skipped; any other error stops the run.
func Apply(ctx context.Context, reg Registrar, f *File, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var res Result

	for i, sp := range f.Persons {
		in, err := sp.toNewPerson()
		if err != nil {
			return res, fmt.Errorf("persons[%d]: %w", i, err)
		}
		if _, err := reg.RegisterPerson(ctx, in); err != nil {
			if errors.Is(err, errs.ErrDuplicateEmail) {
				log.Warn("seed person skipped", zap.String("email", sp.Email))
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("persons[%d] %s: %w", i, sp.Email, err)
		}
		res.Persons++
	}

	for i, si := range f.Items {
		it, err := si.toItem()
		if err != nil {
			return res, fmt.Errorf("items[%d]: %w", i, err)
		}
		_, merged, err := reg.AddItem(ctx, it)
		if err != nil {
			return res, fmt.Errorf("items[%d] %q: %w", i, si.Title, err)
		}
		if merged {
			res.Merged++
		} else {
			res.Items++
		}
	}

	log.Info("seed applied",
		zap.Int("persons", res.Persons),
		zap.Int("skipped", res.Skipped),
		zap.Int("items", res.Items),
		zap.Int("merged", res.Merged),
	)
	return res, nil
}

func (p Person) toNewPerson() (service.NewPerson, error) {
	role, ok := model.ParseRole(p.Role)
	if !ok {
		return service.NewPerson{}, fmt.Errorf("%w: unknown role %q", errs.ErrValidation, p.Role)
	}
	return service.NewPerson{
		Role:       role,
		Name:       p.Name,
		Email:      p.Email,
		Age:        p.Age,
		Secret:     p.Secret,
		EmployeeID: p.EmployeeID,
		Shift:      p.Shift,
	}, nil
}

func (i Item) toItem() (model.Item, error) {
	kind, ok := model.ParseKind(i.Kind)
	if !ok {
		return model.Item{}, fmt.Errorf("%w: unknown kind %q", errs.ErrValidation, i.Kind)
	}
	it := model.Item{Title: i.Title, Author: i.Author, Stock: i.Stock, Kind: kind}
	switch kind {
	case model.KindBook:
		it.Book = &model.BookDetails{Pages: i.Pages, Genre: i.Genre, ISBN: i.ISBN}
	case model.KindVideo:
		it.Video = &model.VideoDetails{RuntimeMinutes: i.RuntimeMinutes, Rating: i.Rating}
	case model.KindAudio:
		it.Audio = &model.AudioDetails{RuntimeMinutes: i.RuntimeMinutes, Genre: i.Genre, UPC: i.UPC}
	case model.KindEbook:
		it.Ebook = &model.EbookDetails{Format: i.Format, SizeMB: i.SizeMB}
	}
	return it, nil
}
