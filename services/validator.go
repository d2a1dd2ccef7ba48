package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-cms/content"
	"github.com/rpupo63/portfolio-cms/errs"
	"github.com/rpupo63/portfolio-cms/models"
)

// MaxTags is the largest tag set a post may carry.
const MaxTags = 20

// PostInput is the edited-post payload accepted by the upsert pipeline.
type PostInput struct {
	ID           *uuid.UUID        `json:"id,omitempty"`
	Title        string            `json:"title" validate:"required"`
	Slug         string            `json:"slug" validate:"required"`
	Summary      string            `json:"summary" validate:"required,max=180"`
	CategoryID   *uuid.UUID        `json:"categoryId"`
	Tags         []string          `json:"tags" validate:"max=20,dive,required,max=64"`
	HeroImageURL string            `json:"heroImageUrl" validate:"omitempty,http_url"`
	ContentJSON  json.RawMessage   `json:"contentJson"`
	Status       models.PostStatus `json:"status" validate:"required,oneof=draft published"`
	PublishedAt  *time.Time        `json:"publishedAt"`
}

// ValidatedPost is a PostInput that passed validation, with its derived values.
type ValidatedPost struct {
	PostInput
	NormalizedSlug string
	Content        content.Document
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// structViolations runs the struct-tag rules of v and returns them as violations.
func structViolations(v interface{}) []errs.Violation {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []errs.Violation{{Field: "payload", Message: err.Error()}}
	}

	violations := make([]errs.Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, errs.Violation{Field: violationField(fe), Message: violationMessage(fe)})
	}
	return violations
}

// violationField strips the struct name from the namespace, so
// PostInput.tags[3] becomes tags[3].
func violationField(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func violationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be %s characters or fewer", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "http_url":
		return "must be empty or an http(s) URL"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	}
	return fmt.Sprintf("failed %s", fe.Tag())
}

// ValidatePost checks in against the schema rules that apply to every save
// and, when the target status is published, the publish guard. Every violated
// rule is reported in a single validation error.
func ValidatePost(in PostInput) (ValidatedPost, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Summary = strings.TrimSpace(in.Summary)
	in.HeroImageURL = strings.TrimSpace(in.HeroImageURL)
	in.Tags = normalizeTags(in.Tags)
	if in.Status == "" {
		in.Status = models.PostStatusDraft
	}

	out := ValidatedPost{PostInput: in}
	violations := structViolations(in)

	if in.Slug != "" {
		out.NormalizedSlug = Slugify(in.Slug)
		if out.NormalizedSlug == "" {
			violations = append(violations, errs.Violation{Field: "slug", Message: "must contain letters or digits"})
		}
	}

	doc, err := content.Validate(in.ContentJSON)
	if err != nil {
		violations = append(violations, errs.Violation{Field: "contentJson", Message: contentMessage(err)})
	} else {
		out.Content = doc
	}

	if in.Status == models.PostStatusPublished {
		violations = append(violations, publishViolations(in, out.Content, err == nil)...)
	}

	if len(violations) > 0 {
		return ValidatedPost{}, errs.NewValidationError(violations)
	}
	return out, nil
}

// publishViolations applies the guard for entering the published state.
func publishViolations(in PostInput, doc content.Document, contentValid bool) []errs.Violation {
	var violations []errs.Violation
	if in.CategoryID == nil {
		violations = append(violations, errs.Violation{Field: "categoryId", Message: "is required to publish"})
	}
	if contentValid && content.IsEmpty(&doc) {
		violations = append(violations, errs.Violation{Field: "contentJson", Message: "must have at least one block to publish"})
	}
	if in.HeroImageURL == "" {
		violations = append(violations, errs.Violation{Field: "heroImageUrl", Message: "is required to publish"})
	}
	return violations
}

func contentMessage(err error) string {
	var apiErr *errs.ApiErr
	if errors.As(err, &apiErr) && apiErr.Details != "" {
		return apiErr.Details
	}
	return err.Error()
}

// normalizeTags trims tags and drops repeats, keeping first occurrences in order.
// Blank tags are kept so validation can report them.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" && seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// ResolvePublishedAt decides the publish timestamp stored with a save.
// Drafts carry none. A published save uses the supplied time, else keeps the
// time of an already published post, else stamps now.
func ResolvePublishedAt(target models.PostStatus, supplied *time.Time, existing *models.Post, now time.Time) *time.Time {
	if target != models.PostStatusPublished {
		return nil
	}
	if supplied != nil {
		t := supplied.UTC()
		return &t
	}
	if existing != nil && existing.IsPublished() && existing.PublishedAt != nil {
		t := existing.PublishedAt.UTC()
		return &t
	}
	t := now.UTC()
	return &t
}
