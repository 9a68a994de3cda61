package registration

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"varna/internal/upload"
)

// Sheet is the participant sheet attached to a school submission.
type Sheet struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Options tune the service. Zero values mean: no size cap, advisory extension check, wall clock.
type Options struct {
	MaxSheetBytes    int64
	StrictExtensions bool
	Now              func() time.Time
}

// Service validates and records public submissions and serves the admin listings.
type Service struct {
	repo  *Repository
	files upload.Storage
	log   logrus.FieldLogger
	opts  Options
}

// NewService creates a service backed by a repository and a file store.
func NewService(repo *Repository, files upload.Storage, log logrus.FieldLogger, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{repo: repo, files: files, log: log, opts: opts}
}

// RegisterIndividual stores a student registration. The category is always recomputed
// from the grade and the creation time is the server's.
func (s *Service) RegisterIndividual(ctx context.Context, in IndividualInput) (Individual, error) {
	if in.Grade == nil {
		return Individual{}, &ValidationError{Msg: "grade is required"}
	}
	grade := int(*in.Grade)

	reg := Individual{
		StudentName: strings.TrimSpace(in.StudentName),
		Grade:       grade,
		Category:    Category(grade),
		Style:       strings.TrimSpace(in.Style),
		SchoolName:  strings.TrimSpace(in.SchoolName),
		Taluk:       strings.TrimSpace(in.Taluk),
		District:    strings.TrimSpace(in.District),
		ParentName:  strings.TrimSpace(in.ParentName),
		ParentEmail: strings.TrimSpace(in.ParentEmail),
		ParentPhone: strings.TrimSpace(in.ParentPhone),
		CreatedAt:   s.opts.Now().UTC(),
	}
	if err := s.repo.InsertIndividual(ctx, &reg); err != nil {
		return Individual{}, err
	}
	return reg, nil
}

// RegisterSchool stores the participant sheet and then the registration pointing at it.
// baseURL ("https://host") is used when the storage backend cannot produce an absolute URL.
// If the insert fails the stored file is left where it is.
func (s *Service) RegisterSchool(ctx context.Context, in SchoolInput, sheet *Sheet, baseURL string) (School, error) {
	if sheet == nil || sheet.Body == nil {
		return School{}, ErrFileRequired
	}
	if s.opts.MaxSheetBytes > 0 && sheet.Size > s.opts.MaxSheetBytes {
		return School{}, &ValidationError{Msg: fmt.Sprintf("File is too large (limit %d bytes)", s.opts.MaxSheetBytes)}
	}
	if !upload.HasAllowedExtension(sheet.Filename) {
		if s.opts.StrictExtensions {
			return School{}, &ValidationError{Msg: "File must be one of " + strings.Join(upload.AllowedExtensions, ", ")}
		}
		s.log.WithField("file_name", sheet.Filename).Warn("participant sheet has an unexpected extension")
	}

	name := upload.StoredName(sheet.Filename)
	obj, err := s.files.Save(ctx, name, sheet.Body, sheet.ContentType)
	if err != nil {
		return School{}, &StorageError{Err: err}
	}
	downloadURL := obj.URL
	if downloadURL == "" {
		downloadURL = strings.TrimRight(baseURL, "/") + obj.Path
	}

	reg := School{
		OrgName:     strings.TrimSpace(in.OrgName),
		CoordName:   strings.TrimSpace(in.CoordName),
		CoordEmail:  strings.TrimSpace(in.CoordEmail),
		CoordPhone:  strings.TrimSpace(in.CoordPhone),
		Taluk:       strings.TrimSpace(in.Taluk),
		District:    strings.TrimSpace(in.District),
		FileName:    sheet.Filename,
		FilePath:    obj.Path,
		DownloadURL: downloadURL,
		CreatedAt:   s.opts.Now().UTC(),
	}
	if err := s.repo.InsertSchool(ctx, &reg); err != nil {
		s.log.WithError(err).WithField("file_path", obj.Path).Warn("school registration not saved, participant sheet left in storage")
		return School{}, err
	}
	return reg, nil
}

// ListIndividuals returns all individual registrations, newest first.
func (s *Service) ListIndividuals(ctx context.Context) ([]Individual, error) {
	return s.repo.ListIndividuals(ctx)
}

// ListSchools returns all school registrations, newest first.
func (s *Service) ListSchools(ctx context.Context) ([]School, error) {
	return s.repo.ListSchools(ctx)
}
