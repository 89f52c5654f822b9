package validations

import (
	"context"
	"regexp"

	pkgError "github.com/AzielCF/az-wabot/pkg/error"
	"github.com/AzielCF/az-wabot/schedule/domain"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	clockPattern = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?( ?[AaPp][Mm])?$`)
	idPattern    = regexp.MustCompile(`^\d+$`)
)

// ValidateScheduleRequest checks the shape of a schedule request. Whether the
// time lies in the future is decided by the store at insertion.
func ValidateScheduleRequest(ctx context.Context, request domain.ScheduleRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Date, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&request.Time, validation.Required, validation.Match(clockPattern)),
		validation.Field(&request.Type, validation.Required,
			validation.In(domain.KindText, domain.KindImage, domain.KindVideo)),
		validation.Field(&request.Content,
			validation.When(request.Type == domain.KindText, validation.Required),
			validation.Length(0, 700)),
		validation.Field(&request.Caption,
			validation.When(request.Type == domain.KindText, validation.Empty),
			validation.Length(0, 1024)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

// ValidateScheduleID checks a post id taken from a path or command argument.
func ValidateScheduleID(ctx context.Context, id string) error {
	err := validation.ValidateWithContext(ctx, id, validation.Required, validation.Match(idPattern))
	if err != nil {
		return pkgError.ValidationError("id: " + err.Error())
	}
	return nil
}
