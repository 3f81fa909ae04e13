package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"coursehub-backend/internal/docstore"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
)

const (
	defaultCourseLimit = 20
	maxCourseLimit     = 100
)

type CatalogService struct {
	courses *repository.CourseRepo
	logger  zerolog.Logger
}

func NewCatalogService(courses *repository.CourseRepo, logger zerolog.Logger) *CatalogService {
	return &CatalogService{courses: courses, logger: logger}
}

// ListCourses returns published courses, newest first. Search matches
// title, description and tags case-insensitively.
func (s *CatalogService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultCourseLimit
	case filter.Limit > maxCourseLimit:
		filter.Limit = maxCourseLimit
	}
	filter.Search = strings.TrimSpace(filter.Search)

	courses, err := s.courses.ListPublished(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	if filter.Search == "" {
		return courses, nil
	}

	term := strings.ToLower(filter.Search)
	matched := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if courseMatches(c, term) {
			matched = append(matched, c)
			if len(matched) == filter.Limit {
				break
			}
		}
	}
	return matched, nil
}

func courseMatches(c models.Course, term string) bool {
	if strings.Contains(strings.ToLower(c.Title), term) || strings.Contains(strings.ToLower(c.Description), term) {
		return true
	}
	for _, tag := range c.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// GetCourse returns a published course.
func (s *CatalogService) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	if !docstore.ValidKey(courseID) {
		return nil, &NotFoundError{Message: "Course not found"}
	}
	c, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &NotFoundError{Message: "Course not found"}
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	if !c.IsPublished {
		return nil, &NotFoundError{Message: "Course not found"}
	}
	return c, nil
}

func (s *CatalogService) ListModules(ctx context.Context, courseID string) ([]models.Module, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	modules, err := s.courses.ListModules(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	return modules, nil
}

func (s *CatalogService) ListLessons(ctx context.Context, moduleID string) ([]models.Lesson, error) {
	if !docstore.ValidKey(moduleID) {
		return nil, &NotFoundError{Message: "Module not found"}
	}
	lessons, err := s.courses.ListLessons(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	return lessons, nil
}

// CatalogFile is the YAML layout accepted by SeedCatalog.
type CatalogFile struct {
	Courses []SeedCourse `yaml:"courses"`
}

type SeedCourse struct {
	models.Course `yaml:",inline"`
	Modules       []SeedModule `yaml:"modules"`
}

type SeedModule struct {
	models.Module `yaml:",inline"`
	Lessons       []models.Lesson `yaml:"lessons"`
}

type SeedResult struct {
	Courses int
	Modules int
	Lessons int
}

// SeedCatalog loads courses with their modules and lessons from YAML and
// writes them. Existing documents with the same ids are replaced, keeping
// course enrollment counts.
func (s *CatalogService) SeedCatalog(ctx context.Context, r io.Reader) (SeedResult, error) {
	file, err := ParseCatalog(r)
	if err != nil {
		return SeedResult{}, err
	}

	var res SeedResult
	for _, c := range file.Courses {
		if err := s.courses.Save(ctx, c.Course); err != nil {
			return res, fmt.Errorf("failed to save course %s: %w", c.ID, err)
		}
		res.Courses++
		for _, m := range c.Modules {
			m.CourseID = c.ID
			if err := s.courses.SaveModule(ctx, m.Module); err != nil {
				return res, fmt.Errorf("failed to save module %s: %w", m.ID, err)
			}
			res.Modules++
			for _, l := range m.Lessons {
				l.ModuleID = m.ID
				l.CourseID = c.ID
				if err := s.courses.SaveLesson(ctx, l); err != nil {
					return res, fmt.Errorf("failed to save lesson %s: %w", l.ID, err)
				}
				res.Lessons++
			}
		}
	}
	s.logger.Info().
		Int("courses", res.Courses).
		Int("modules", res.Modules).
		Int("lessons", res.Lessons).
		Msg("catalog seeded")
	return res, nil
}

// ParseCatalog decodes and validates a catalog file without writing it.
// Unknown YAML keys are rejected.
func ParseCatalog(r io.Reader) (CatalogFile, error) {
	var file CatalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return CatalogFile{}, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := validateCatalog(file); err != nil {
		return CatalogFile{}, err
	}
	return file, nil
}

// Counts reports how many documents seeding the file writes.
func (f CatalogFile) Counts() SeedResult {
	var res SeedResult
	for _, c := range f.Courses {
		res.Courses++
		for _, m := range c.Modules {
			res.Modules++
			res.Lessons += len(m.Lessons)
		}
	}
	return res
}

func validateCatalog(file CatalogFile) error {
	fields := make(map[string]string)
	seen := make(map[string]bool)
	check := func(kind, id string) {
		key := kind + ":" + id
		switch {
		case !docstore.ValidKey(id) || strings.Contains(id, "/"):
			fields[key] = "invalid id"
		case seen[key]:
			fields[key] = "duplicate id"
		}
		seen[key] = true
	}

	for _, c := range file.Courses {
		check("course", c.ID)
		if c.Level != "" && !validExperience[c.Level] {
			fields["course:"+c.ID+":level"] = "unknown level"
		}
		for _, m := range c.Modules {
			check("module", m.ID)
			for _, l := range m.Lessons {
				check("lesson", l.ID)
			}
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
