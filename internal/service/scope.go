package service

import (
	"context"
	"errors"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
)

// guardianStudentIDs returns the students a guardian may see. Staff get nil, meaning no restriction.
func guardianStudentIDs(ctx context.Context, repo repository.StudentRepository, viewer model.Viewer) ([]int, error) {
	if !viewer.IsGuardian() {
		return nil, nil
	}
	return repo.IDsForGuardian(ctx, viewer.InstitutionID, viewer.ProfileID)
}

// guardianClassIDs returns the classes of a guardian's children. Staff get nil.
func guardianClassIDs(ctx context.Context, repo repository.StudentRepository, viewer model.Viewer) ([]int, error) {
	if !viewer.IsGuardian() {
		return nil, nil
	}
	return repo.ClassIDsForGuardian(ctx, viewer.InstitutionID, viewer.ProfileID)
}

// canSeeStudent reports whether the viewer may read records of the student.
func canSeeStudent(ctx context.Context, repo repository.StudentRepository, viewer model.Viewer, studentID int) (bool, error) {
	ids, err := guardianStudentIDs(ctx, repo, viewer)
	if err != nil {
		return false, err
	}
	if ids == nil {
		return true, nil
	}
	return containsID(ids, studentID), nil
}

// loadStudent fetches a student of the institution, reporting a missing one as ErrInvalidStudent.
func loadStudent(ctx context.Context, repo repository.StudentRepository, institutionID, id int) (*model.Student, error) {
	st, err := repo.GetByID(ctx, institutionID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidStudent
		}
		return nil, err
	}
	return st, nil
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
