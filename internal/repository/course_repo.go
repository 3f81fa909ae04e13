package repository

import (
	"context"

	"coursehub-backend/internal/docstore"
	"coursehub-backend/internal/models"
)

type CourseRepo struct {
	store docstore.Store
}

func NewCourseRepo(store docstore.Store) *CourseRepo {
	return &CourseRepo{store: store}
}

func (r *CourseRepo) GetByID(ctx context.Context, courseID string) (*models.Course, error) {
	snap, err := r.store.Get(ctx, docstore.Doc(collCourses, courseID))
	if err != nil {
		return nil, err
	}
	course := &models.Course{}
	if err := snap.DataTo(course); err != nil {
		return nil, err
	}
	course.ID = snap.Ref.ID
	return course, nil
}

// ListPublished returns published courses, newest first.
func (r *CourseRepo) ListPublished(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	q := docstore.Collection(collCourses).Where("is_published", docstore.OpEq, true)
	if filter.Category != "" {
		q = q.Where("category", docstore.OpEq, filter.Category)
	}
	if filter.Level != "" {
		q = q.Where("level", docstore.OpEq, filter.Level)
	}
	if filter.InstructorID != "" {
		q = q.Where("instructor_id", docstore.OpEq, filter.InstructorID)
	}
	if filter.MinRating > 0 {
		q = q.Where("rating", docstore.OpGe, filter.MinRating)
	}
	q = q.OrderBy("created_at", docstore.Desc)
	if filter.Limit > 0 && filter.Search == "" {
		q = q.Limit(filter.Limit)
	}

	snaps, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Course](snaps)
}

func (r *CourseRepo) ListModules(ctx context.Context, courseID string) ([]models.Module, error) {
	snaps, err := r.store.Query(ctx, docstore.Collection(collModules).
		Where("course_id", docstore.OpEq, courseID).
		Where("is_published", docstore.OpEq, true).
		OrderBy("order", docstore.Asc))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Module](snaps)
}

func (r *CourseRepo) ListLessons(ctx context.Context, moduleID string) ([]models.Lesson, error) {
	snaps, err := r.store.Query(ctx, docstore.Collection(collLessons).
		Where("module_id", docstore.OpEq, moduleID).
		Where("is_published", docstore.OpEq, true).
		OrderBy("order", docstore.Asc))
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Lesson](snaps)
}

// Save writes a course, keeping its enrollment count and creation time
// when it already exists.
func (r *CourseRepo) Save(ctx context.Context, course models.Course) error {
	doc, err := toDocument(course)
	if err != nil {
		return err
	}
	delete(doc, "enrollment_count")
	delete(doc, "created_at")
	doc["updated_at"] = docstore.ServerTimestamp

	ref := docstore.Doc(collCourses, course.ID)
	return r.store.RunTransaction(ctx, ref, func(snap *docstore.Snapshot) ([]docstore.Update, error) {
		updates := make([]docstore.Update, 0, len(doc)+2)
		for k, v := range doc {
			updates = append(updates, docstore.Update{Path: k, Value: v})
		}
		if !snap.Exists() {
			updates = append(updates,
				docstore.Update{Path: "created_at", Value: docstore.ServerTimestamp},
				docstore.Update{Path: "enrollment_count", Value: 0},
			)
		}
		return updates, nil
	})
}

func (r *CourseRepo) SaveModule(ctx context.Context, module models.Module) error {
	return r.store.Set(ctx, docstore.Doc(collModules, module.ID), module, false)
}

func (r *CourseRepo) SaveLesson(ctx context.Context, lesson models.Lesson) error {
	return r.store.Set(ctx, docstore.Doc(collLessons, lesson.ID), lesson, false)
}

func (r *CourseRepo) IncrementEnrollmentCount(ctx context.Context, courseID string) error {
	return r.store.Update(ctx, docstore.Doc(collCourses, courseID), []docstore.Update{
		{Path: "enrollment_count", Value: docstore.Increment(1)},
	})
}
