package rest

import (
	"io"
	"strconv"
	"strings"

	pkgError "github.com/AzielCF/az-wabot/pkg/error"
	"github.com/AzielCF/az-wabot/pkg/timeutils"
	"github.com/AzielCF/az-wabot/pkg/utils"
	"github.com/AzielCF/az-wabot/schedule/application"
	"github.com/AzielCF/az-wabot/schedule/domain"
	"github.com/AzielCF/az-wabot/validations"
	"github.com/gofiber/fiber/v2"
)

type Schedule struct {
	Service *application.ScheduleService
}

// ScheduledPostResponse is a pending post as returned by the API.
type ScheduledPostResponse struct {
	domain.PostRecord
	LocalTime string `json:"local_time"`
	Until     string `json:"until"`
}

func InitRestSchedule(app fiber.Router, service *application.ScheduleService) Schedule {
	rest := Schedule{Service: service}

	group := app.Group("/status-schedules")
	group.Get("/", rest.List)
	group.Post("/", rest.Create)
	group.Get("/history", rest.History)
	group.Delete("/:id", rest.Cancel)

	return rest
}

func (controller *Schedule) List(c *fiber.Ctx) error {
	posts := controller.Service.List(c.UserContext())

	results := make([]ScheduledPostResponse, 0, len(posts))
	for _, p := range posts {
		results = append(results, controller.toResponse(p))
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch scheduled statuses",
		Results: results,
	})
}

// Create accepts JSON for text statuses or multipart form data with a
// "file" part for image and video statuses.
func (controller *Schedule) Create(c *fiber.Ctx) error {
	var request domain.ScheduleRequest
	err := c.BodyParser(&request)
	if err != nil {
		utils.PanicIfNeeded(pkgError.ValidationError("invalid request body: " + err.Error()))
	}
	request.Type = domain.Kind(strings.ToLower(string(request.Type)))

	err = validations.ValidateScheduleRequest(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	at, err := timeutils.ParseDateTime(request.Date, request.Time, controller.Service.Location())
	if err != nil {
		utils.PanicIfNeeded(pkgError.ValidationError(err.Error()))
	}

	candidate := domain.Candidate{
		ScheduledAt: at,
		Kind:        request.Type,
		Text:        request.Content,
		Caption:     request.Caption,
		CreatedBy:   request.CreatedBy,
	}
	if candidate.CreatedBy == "" {
		candidate.CreatedBy = "rest"
	}

	if request.Type.IsMedia() {
		upload, err := readUpload(c)
		utils.PanicIfNeeded(err)
		candidate.Media = upload
		if candidate.Caption == "" {
			candidate.Caption = request.Content
		}
		candidate.Text = ""
	}

	post, err := controller.Service.Schedule(c.UserContext(), candidate)
	utils.PanicIfNeeded(err)

	return c.Status(fiber.StatusCreated).JSON(utils.ResponseData{
		Status:  fiber.StatusCreated,
		Code:    "SUCCESS",
		Message: "Status scheduled",
		Results: controller.toResponse(post),
	})
}

func (controller *Schedule) Cancel(c *fiber.Ctx) error {
	id := c.Params("id")
	err := validations.ValidateScheduleID(c.UserContext(), id)
	utils.PanicIfNeeded(err)

	post, err := controller.Service.Cancel(c.UserContext(), id)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Scheduled status cancelled",
		Results: controller.toResponse(post),
	})
}

func (controller *Schedule) History(c *fiber.Ctx) error {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			utils.PanicIfNeeded(pkgError.ValidationError("limit must be a number between 1 and 200"))
		}
		limit = n
	}

	entries, err := controller.Service.History(c.UserContext(), limit)
	if err != nil {
		utils.PanicIfNeeded(pkgError.PersistenceError(err.Error()))
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch status history",
		Results: entries,
	})
}

func (controller *Schedule) toResponse(post domain.ScheduledPost) ScheduledPostResponse {
	return ScheduledPostResponse{
		PostRecord: post.Record(),
		LocalTime:  timeutils.FormatLocal(post.ScheduledAt, controller.Service.Location()),
		Until:      timeutils.HumanizeUntil(post.ScheduledAt, controller.Service.Now()),
	}
}

func readUpload(c *fiber.Ctx) (*domain.MediaUpload, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, pkgError.ValidationError("image and video statuses need a file part named \"file\"")
	}

	file, err := header.Open()
	if err != nil {
		return nil, pkgError.ValidationError("cannot open uploaded file: " + err.Error())
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, pkgError.ValidationError("cannot read uploaded file: " + err.Error())
	}

	return &domain.MediaUpload{Data: data, MimeType: header.Header.Get("Content-Type")}, nil
}
