package validations

import (
	"context"
	"errors"
	"testing"

	pkgError "github.com/AzielCF/az-wabot/pkg/error"
	"github.com/AzielCF/az-wabot/schedule/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidateScheduleRequest(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		req     domain.ScheduleRequest
		wantErr bool
	}{
		{name: "text ok", req: domain.ScheduleRequest{Date: "2026-03-01", Time: "09:30", Type: domain.KindText, Content: "Hello"}},
		{name: "image with caption", req: domain.ScheduleRequest{Date: "2026-03-01", Time: "9:30 PM", Type: domain.KindImage, Caption: "Party!"}},
		{name: "text without content", req: domain.ScheduleRequest{Date: "2026-03-01", Time: "09:30", Type: domain.KindText}, wantErr: true},
		{name: "text with caption", req: domain.ScheduleRequest{Date: "2026-03-01", Time: "09:30", Type: domain.KindText, Content: "x", Caption: "y"}, wantErr: true},
		{name: "bad date", req: domain.ScheduleRequest{Date: "2026-13-01", Time: "09:30", Type: domain.KindText, Content: "x"}, wantErr: true},
		{name: "bad time", req: domain.ScheduleRequest{Date: "2026-03-01", Time: "noon", Type: domain.KindText, Content: "x"}, wantErr: true},
		{name: "unknown type", req: domain.ScheduleRequest{Date: "2026-03-01", Time: "09:30", Type: "audio"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScheduleRequest(ctx, tt.req)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var v pkgError.ValidationError
			assert.True(t, errors.As(err, &v))
		})
	}
}

func TestValidateScheduleID(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, ValidateScheduleID(ctx, "12"))
	assert.Error(t, ValidateScheduleID(ctx, ""))
	assert.Error(t, ValidateScheduleID(ctx, "abc"))
}
