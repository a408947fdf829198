package echoapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/seating/core"
	"github.com/trezcool/seating/core/seating"
	sheetsvc "github.com/trezcool/seating/services/spreadsheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SeatingService is implemented by *seating.Service.
type SeatingService interface {
	ListClassrooms(ctx context.Context) ([]seating.Classroom, error)
	GetClassroom(ctx context.Context, classID string) (seating.Classroom, error)
	CreateClassroom(ctx context.Context, nc seating.NewClassroom) (seating.Classroom, error)
	GetArrangement(ctx context.Context, classID string) (seating.Arrangement, error)
	SaveLayoutConfig(ctx context.Context, sl seating.SaveLayout) (seating.Layout, error)
	Roster(ctx context.Context, classID string, ordering ...core.DBOrdering) ([]seating.Student, error)
	AddStudents(ctx context.Context, classID string, nss []seating.NewStudent) ([]seating.Student, error)
	FindStudent(ctx context.Context, classID, query string) (seating.Student, error)
	AssignStudent(ctx context.Context, classID, studentID string, row, col int) (seating.Assignment, error)
	RemoveStudent(ctx context.Context, classID string, row, col int) error
	ClearArrangement(ctx context.Context, classID string) error
	SwapStudents(ctx context.Context, classID string, a, b seating.Seat) error
	SwapMultiple(ctx context.Context, classID string, pairs []seating.SwapPair) error
	AutoAssign(ctx context.Context, classID string, opts seating.AutoAssignOptions) (seating.AssignResult, error)
}

var _ SeatingService = (*seating.Service)(nil)

type (
	AddStudentsRequest struct {
		Students []seating.NewStudent `json:"students"`
	}

	AssignStudentRequest struct {
		StudentID string `json:"student_id"`
	}

	SwapMultipleRequest struct {
		Pairs []seating.SwapPair `json:"pairs"`
	}
)

type seatingApi struct {
	svc SeatingService
}

func registerSeatingAPI(g *echo.Group, svc SeatingService) {
	api := seatingApi{svc: svc}

	cg := g.Group("/classrooms")
	cg.GET("", api.listClassrooms)
	cg.POST("", api.createClassroom)

	// detail endpoints
	dg := cg.Group("/:classId")
	dg.GET("", api.retrieveClassroom)
	dg.GET("/arrangement", api.getArrangement)
	dg.GET("/arrangement.xlsx", api.exportArrangement)
	dg.PUT("/layout", api.saveLayout)
	dg.GET("/students", api.roster)
	dg.POST("/students", api.addStudents)
	dg.POST("/students/import", api.importRoster)
	dg.GET("/students/find", api.findStudent)
	dg.PUT("/seats/:row/:col", api.assignStudent)
	dg.DELETE("/seats/:row/:col", api.removeStudent)
	dg.DELETE("/seats", api.clearArrangement)
	dg.POST("/swap", api.swapStudents)
	dg.POST("/swap-batch", api.swapMultiple)
	dg.POST("/auto-assign", api.autoAssign)
}

// Handlers

func (api *seatingApi) listClassrooms(ctx echo.Context) error {
	classrooms, err := api.svc.ListClassrooms(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing classrooms")
	}
	if classrooms == nil {
		classrooms = []seating.Classroom{}
	}
	return respond(ctx, http.StatusOK, classrooms)
}

func (api *seatingApi) createClassroom(ctx echo.Context) error {
	var data seating.NewClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassroom")
	}
	cls, err := api.svc.CreateClassroom(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating classroom")
	}
	return respond(ctx, http.StatusCreated, cls)
}

func (api *seatingApi) retrieveClassroom(ctx echo.Context) error {
	cls, err := api.svc.GetClassroom(ctx.Request().Context(), ctx.Param("classId"))
	if err != nil {
		return errors.Wrap(err, "retrieving classroom")
	}
	return respond(ctx, http.StatusOK, cls)
}

func (api *seatingApi) getArrangement(ctx echo.Context) error {
	arr, err := api.svc.GetArrangement(ctx.Request().Context(), ctx.Param("classId"))
	if err != nil {
		return errors.Wrap(err, "getting arrangement")
	}
	return respond(ctx, http.StatusOK, arr)
}

func (api *seatingApi) exportArrangement(ctx echo.Context) error {
	classID := ctx.Param("classId")
	arr, err := api.svc.GetArrangement(ctx.Request().Context(), classID)
	if err != nil {
		return errors.Wrap(err, "getting arrangement")
	}

	buf := new(bytes.Buffer)
	if err = sheetsvc.ExportArrangement(arr, buf); err != nil {
		return errors.Wrap(err, "exporting arrangement")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", classID+"-seating.xlsx"))
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (api *seatingApi) saveLayout(ctx echo.Context) error {
	var data seating.SaveLayout
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveLayout")
	}
	data.ClassID = ctx.Param("classId")

	layout, err := api.svc.SaveLayoutConfig(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving layout")
	}
	return respond(ctx, http.StatusOK, layout)
}

func (api *seatingApi) roster(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.Roster(ctx.Request().Context(), ctx.Param("classId"), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying roster")
	}
	return respond(ctx, http.StatusOK, students)
}

func (api *seatingApi) addStudents(ctx echo.Context) error {
	var data AddStudentsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddStudentsRequest")
	}
	students, err := api.svc.AddStudents(ctx.Request().Context(), ctx.Param("classId"), data.Students)
	if err != nil {
		return errors.Wrap(err, "adding students")
	}
	return respond(ctx, http.StatusCreated, students)
}

func (api *seatingApi) importRoster(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "an .xlsx file is required"})
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = file.Close() }()

	nss, err := sheetsvc.ParseRoster(file)
	if err != nil {
		if core.IsValidationError(err) {
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: "not a valid .xlsx workbook"})
	}
	students, err := api.svc.AddStudents(ctx.Request().Context(), ctx.Param("classId"), nss)
	if err != nil {
		return errors.Wrap(err, "importing roster")
	}
	return respond(ctx, http.StatusCreated, students)
}

func (api *seatingApi) findStudent(ctx echo.Context) error {
	st, err := api.svc.FindStudent(ctx.Request().Context(), ctx.Param("classId"), ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	return respond(ctx, http.StatusOK, st)
}

func (api *seatingApi) assignStudent(ctx echo.Context) error {
	row, err := intParam(ctx, "row")
	if err != nil {
		return err
	}
	col, err := intParam(ctx, "col")
	if err != nil {
		return err
	}
	var data AssignStudentRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignStudentRequest")
	}

	assignment, err := api.svc.AssignStudent(ctx.Request().Context(), ctx.Param("classId"), data.StudentID, row, col)
	if err != nil {
		return errors.Wrap(err, "assigning student")
	}
	return respond(ctx, http.StatusOK, assignment)
}

func (api *seatingApi) removeStudent(ctx echo.Context) error {
	row, err := intParam(ctx, "row")
	if err != nil {
		return err
	}
	col, err := intParam(ctx, "col")
	if err != nil {
		return err
	}
	if err = api.svc.RemoveStudent(ctx.Request().Context(), ctx.Param("classId"), row, col); err != nil {
		return errors.Wrap(err, "removing student")
	}
	return respond(ctx, http.StatusOK, nil)
}

func (api *seatingApi) clearArrangement(ctx echo.Context) error {
	if err := api.svc.ClearArrangement(ctx.Request().Context(), ctx.Param("classId")); err != nil {
		return errors.Wrap(err, "clearing arrangement")
	}
	return respond(ctx, http.StatusOK, nil)
}

func (api *seatingApi) swapStudents(ctx echo.Context) error {
	var data seating.SwapPair
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SwapPair")
	}
	if err := api.svc.SwapStudents(ctx.Request().Context(), ctx.Param("classId"), data.SeatA, data.SeatB); err != nil {
		return errors.Wrap(err, "swapping students")
	}
	return respond(ctx, http.StatusOK, nil)
}

func (api *seatingApi) swapMultiple(ctx echo.Context) error {
	var data SwapMultipleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SwapMultipleRequest")
	}
	if err := api.svc.SwapMultiple(ctx.Request().Context(), ctx.Param("classId"), data.Pairs); err != nil {
		return errors.Wrap(err, "swapping students")
	}
	return respond(ctx, http.StatusOK, nil)
}

func (api *seatingApi) autoAssign(ctx echo.Context) error {
	var data seating.AutoAssignOptions
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AutoAssignOptions")
	}
	result, err := api.svc.AutoAssign(ctx.Request().Context(), ctx.Param("classId"), data)
	if err != nil {
		return errors.Wrap(err, "auto-assigning")
	}
	return respond(ctx, http.StatusOK, result)
}
