package webmail

import (
	"errors"
	"fmt"
	"testing"

	"github.com/emailapp/webmail/store"
)

func TestErrorFamilies(t *testing.T) {
	t.Run("not found wraps store error", func(t *testing.T) {
		if !errors.Is(ErrNotFound, store.ErrNotFound) {
			t.Error("ErrNotFound should wrap store.ErrNotFound")
		}
		if !IsNotFound(ErrNotFound) {
			t.Error("IsNotFound should match ErrNotFound")
		}
		if !IsNotFound(store.ErrNotFound) {
			t.Error("IsNotFound should match the raw store error")
		}
	})

	t.Run("conflict wraps duplicate entry", func(t *testing.T) {
		if !IsConflict(ErrConflict) {
			t.Error("IsConflict should match ErrConflict")
		}
		if !IsConflict(ErrUsernameTaken) || !IsConflict(ErrEmailTaken) {
			t.Error("taken errors should classify as conflicts")
		}
	})

	t.Run("invalid argument family", func(t *testing.T) {
		members := []error{
			ErrEmptyRecipients, ErrEmptySubject, ErrSubjectTooLong,
			ErrBodyTooLarge, ErrTooManyRecipients, ErrSelfSend,
			ErrInvalidUserID, ErrInvalidMailID,
		}
		for _, err := range members {
			if !IsInvalidArgument(err) {
				t.Errorf("%v should classify as invalid argument", err)
			}
		}
	})

	t.Run("unknown recipient is not found", func(t *testing.T) {
		if !IsNotFound(ErrUnknownRecipient) {
			t.Error("ErrUnknownRecipient should classify as not found")
		}
		if IsInvalidArgument(ErrUnknownRecipient) {
			t.Error("ErrUnknownRecipient should not classify as invalid argument")
		}
	})

	t.Run("families are distinct", func(t *testing.T) {
		if IsNotFound(ErrInvalidArgument) || IsConflict(ErrInvalidArgument) {
			t.Error("invalid argument leaked into other families")
		}
		if IsInvalidArgument(ErrNotFound) || IsInvalidArgument(ErrConflict) {
			t.Error("not found / conflict leaked into invalid argument")
		}
	})
}

func TestWrapStoreError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil passes through", nil, nil},
		{"not found", store.ErrNotFound, ErrNotFound},
		{"wrapped not found", fmt.Errorf("get entry: %w", store.ErrNotFound), ErrNotFound},
		{"duplicate", store.ErrDuplicateEntry, ErrConflict},
		{"invalid id", store.ErrInvalidID, ErrInvalidMailID},
		{"not connected", store.ErrNotConnected, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapStoreError(tt.in)
			if tt.want == nil {
				if got != nil {
					t.Errorf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	t.Run("unknown errors become internal", func(t *testing.T) {
		got := wrapStoreError(errors.New("connection reset"))
		if !errors.Is(got, ErrInternal) {
			t.Errorf("expected ErrInternal, got %v", got)
		}
	})
}
