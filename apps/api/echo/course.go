package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmaswali/shule/core/course"
	"github.com/tmaswali/shule/core/user"
)

type courseApi struct {
	svc      *course.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{svc: deps.CourseSvc, validate: deps.Validate}

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, roleMiddleware(user.RoleTeacher))
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update, roleMiddleware(user.RoleTeacher))
	cg.DELETE("/:id", api.destroy, roleMiddleware(user.RoleTeacher))

	cg.POST("/:id/materials", api.addMaterial, roleMiddleware(user.RoleTeacher))
	cg.DELETE("/:id/materials/:materialID", api.removeMaterial, roleMiddleware(user.RoleTeacher))
	cg.POST("/:id/assignments", api.addAssignment, roleMiddleware(user.RoleTeacher))
	cg.DELETE("/:id/assignments/:assignmentID", api.removeAssignment, roleMiddleware(user.RoleTeacher))
	cg.POST("/:id/assignments/:assignmentID/submissions", api.submitAssignment, roleMiddleware(user.RoleStudent))
	cg.POST("/:id/enroll", api.enroll, roleMiddleware(user.RoleTeacher, user.RoleStudent))
	cg.POST("/:id/unenroll", api.unenroll, roleMiddleware(user.RoleTeacher, user.RoleStudent))
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, crs)
}

// query supports ?teacher=, ?class= and ?student= filters.
func (api *courseApi) query(ctx echo.Context) error {
	var (
		courses []course.Course
		err     error
	)
	switch {
	case ctx.QueryParam("teacher") != "":
		courses, err = api.svc.QueryByTeacher(ctx.QueryParam("teacher"))
	case ctx.QueryParam("class") != "":
		courses, err = api.svc.QueryByClass(ctx.QueryParam("class"))
	case ctx.QueryParam("student") != "":
		courses, err = api.svc.QueryForStudent(ctx.QueryParam("student"))
	default:
		courses, err = api.svc.QueryAll()
	}
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) addMaterial(ctx echo.Context) error {
	var data course.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mat, err := api.svc.AddMaterial(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, mat)
}

func (api *courseApi) removeMaterial(ctx echo.Context) error {
	if err := api.svc.RemoveMaterial(ctx.Param("id"), ctx.Param("materialID")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) addAssignment(ctx echo.Context) error {
	var data course.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	asg, err := api.svc.AddAssignment(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *courseApi) removeAssignment(ctx echo.Context) error {
	if err := api.svc.RemoveAssignment(ctx.Param("id"), ctx.Param("assignmentID")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) submitAssignment(ctx echo.Context) error {
	var data course.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if claims, err := getContextClaims(ctx); err == nil && data.StudentID == "" {
		data.StudentID = claims.Subject
		data.StudentName = claims.Name
	}

	sub, err := api.svc.SubmitAssignment(ctx.Param("id"), ctx.Param("assignmentID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	studentID := ctx.QueryParam("student")
	if claims, err := getContextClaims(ctx); err == nil && studentID == "" {
		studentID = claims.Subject
	}

	crs, err := api.svc.Enroll(ctx.Param("id"), studentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) unenroll(ctx echo.Context) error {
	studentID := ctx.QueryParam("student")
	if claims, err := getContextClaims(ctx); err == nil && studentID == "" {
		studentID = claims.Subject
	}

	crs, err := api.svc.Unenroll(ctx.Param("id"), studentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}
