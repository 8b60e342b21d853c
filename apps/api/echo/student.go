package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmaswali/shule/core/student"
	"github.com/tmaswali/shule/core/user"
)

type studentApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{svc: deps.StudentSvc, validate: deps.Validate}

	sg := g.Group("/students", jwt)
	sg.GET("", api.query, roleMiddleware(user.RoleTeacher))
	sg.GET("/stats", api.stats, roleMiddleware(user.RoleTeacher))
	sg.POST("", api.create, adminMiddleware())
	sg.GET("/:id", api.retrieve, roleMiddleware(user.RoleTeacher, user.RoleParent))
	sg.PUT("/:id", api.update, adminMiddleware())
	sg.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, std)
}

// query supports ?search=, ?class= and ?status= filters; they are applied one
// at a time, in that order of precedence.
func (api *studentApi) query(ctx echo.Context) error {
	var (
		students []student.Student
		err      error
	)
	switch {
	case ctx.QueryParam("search") != "":
		students, err = api.svc.Search(ctx.QueryParam("search"))
	case ctx.QueryParam("class") != "":
		students, err = api.svc.FilterByClass(ctx.QueryParam("class"))
	case ctx.QueryParam("status") != "":
		students, err = api.svc.FilterByStatus(ctx.QueryParam("status"))
	default:
		students, err = api.svc.QueryAll()
	}
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats()
	if err != nil {
		return errors.Wrap(err, "computing student stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
