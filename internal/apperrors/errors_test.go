package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(NotFoundf("report %s not found", "r1")))
	assert.Equal(t, CodeForbidden, CodeOf(Forbiddenf("nope")))
	assert.Equal(t, CodeBusinessRule, CodeOf(BusinessRulef("bad transition")))
	assert.Equal(t, CodeValidation, CodeOf(Validationf("missing title")))

	// Plain errors degrade to internal.
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeInternal, CodeOf(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeInternal, "persist report", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Contains(t, err.Error(), "persist report")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("change status: %w", Forbiddenf("not the owner"))
	assert.True(t, Is(err, CodeForbidden))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFoundf("x"), http.StatusNotFound},
		{Forbiddenf("x"), http.StatusForbidden},
		{BusinessRulef("x"), http.StatusConflict},
		{Validationf("x"), http.StatusBadRequest},
		{New(CodeInternal, "x"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err))
	}
}
