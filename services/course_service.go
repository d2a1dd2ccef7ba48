package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms/auth"
	"github.com/rpupo63/portfolio-cms/cache"
	"github.com/rpupo63/portfolio-cms/database"
	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/models"
)

type CourseInput struct {
	ID         *uuid.UUID `json:"id,omitempty"`
	Code       string     `json:"code" validate:"required,max=32"`
	Name       string     `json:"name" validate:"required,max=200"`
	Discipline string     `json:"discipline" validate:"required"`
}

type CourseService struct {
	db          database.Database
	guard       Guard
	invalidator cache.Invalidator
	logger      zerolog.Logger
}

func NewCourseService(db database.Database, guard Guard, invalidator cache.Invalidator) *CourseService {
	if invalidator == nil {
		invalidator = cache.Nop{}
	}
	return &CourseService{
		db:          db,
		guard:       guard,
		invalidator: invalidator,
		logger:      log.With().Str("service", "courseService").Logger(),
	}
}

// List returns courses, optionally of a single discipline.
func (s *CourseService) List(ctx context.Context, discipline string) ([]*models.Course, error) {
	var filter models.Discipline
	if strings.TrimSpace(discipline) != "" {
		d, ok := models.ParseDiscipline(discipline)
		if !ok {
			return nil, errs.NewInvalidFieldError("discipline", "must be Math, CS or Other")
		}
		filter = d
	}
	courses, err := s.db.CourseRepo().FindAll(ctx, filter)
	if err != nil {
		return nil, errs.NewDatabaseError("list", "courses", err)
	}
	if courses == nil {
		courses = []*models.Course{}
	}
	return courses, nil
}

func (s *CourseService) Upsert(ctx context.Context, in CourseInput) (*models.Course, error) {
	actor, err := s.guard.Check(ctx, auth.Writers...)
	if err != nil {
		return nil, err
	}

	course, violations := buildCourse(in)
	if len(violations) > 0 {
		return nil, errs.NewValidationError(violations)
	}
	if in.ID == nil {
		if err := s.db.CourseRepo().Add(ctx, course); err != nil {
			return nil, errs.NewDatabaseError("create", "course", err)
		}
	} else {
		course.ID = *in.ID
		if err := s.db.CourseRepo().Update(ctx, course); err != nil {
			return nil, errs.NewDatabaseError("update", "course", err)
		}
	}

	s.logger.Info().Str("actor", actor.ID).Str("courseID", course.ID.String()).Msg("Course saved")
	s.invalidator.Invalidate(ctx, cache.ForPaths(cache.PathCourses))
	return course, nil
}

func (s *CourseService) Delete(ctx context.Context, id uuid.UUID) error {
	actor, err := s.guard.Check(ctx, auth.Writers...)
	if err != nil {
		return err
	}
	if err := s.db.CourseRepo().Delete(ctx, id); err != nil {
		return errs.NewDatabaseError("delete", "course", err)
	}
	s.logger.Info().Str("actor", actor.ID).Str("courseID", id.String()).Msg("Course deleted")
	s.invalidator.Invalidate(ctx, cache.ForPaths(cache.PathCourses))
	return nil
}

// ImportCSV adds every course in r. The input starts with a header row and
// then has code,name,discipline rows. Nothing is written unless every row is
// valid.
func (s *CourseService) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	actor, err := s.guard.Check(ctx, auth.Writers...)
	if err != nil {
		return 0, err
	}

	courses, err := parseCourseCSV(r)
	if err != nil {
		return 0, err
	}
	if err := s.db.CourseRepo().AddAll(ctx, courses); err != nil {
		return 0, errs.NewDatabaseError("import", "courses", err)
	}

	s.logger.Info().Str("actor", actor.ID).Int("count", len(courses)).Msg("Courses imported")
	s.invalidator.Invalidate(ctx, cache.ForPaths(cache.PathCourses))
	return len(courses), nil
}

func parseCourseCSV(r io.Reader) ([]*models.Course, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errs.NewMissingRequiredFieldError("csv")
		}
		return nil, errs.NewMalformedPayloadError("csv", err)
	}

	var (
		courses    []*models.Course
		violations []errs.Violation
	)
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			violations = append(violations, errs.Violation{Field: fmt.Sprintf("row %d", row), Message: err.Error()})
			continue
		}
		course, rowViolations := buildCourse(CourseInput{Code: record[0], Name: record[1], Discipline: record[2]})
		for _, v := range rowViolations {
			violations = append(violations, errs.Violation{Field: fmt.Sprintf("row %d %s", row, v.Field), Message: v.Message})
		}
		if len(rowViolations) == 0 {
			courses = append(courses, course)
		}
	}

	if len(violations) > 0 {
		return nil, errs.NewValidationError(violations)
	}
	if len(courses) == 0 {
		return nil, errs.NewValidationError([]errs.Violation{{Field: "csv", Message: "has no course rows"}})
	}
	return courses, nil
}

func buildCourse(in CourseInput) (*models.Course, []errs.Violation) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Discipline = strings.TrimSpace(in.Discipline)

	violations := structViolations(in)
	discipline, ok := models.ParseDiscipline(in.Discipline)
	if !ok && in.Discipline != "" {
		violations = append(violations, errs.Violation{Field: "discipline", Message: "must be Math, CS or Other"})
	}
	if len(violations) > 0 {
		return nil, violations
	}
	return &models.Course{Code: in.Code, Name: in.Name, Discipline: discipline}, nil
}
