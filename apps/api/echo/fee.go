package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmaswali/shule/core/fee"
	"github.com/tmaswali/shule/core/user"
)

type feeApi struct {
	svc      *fee.Service
	validate *validator.Validate
}

func registerFeeAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := feeApi{svc: deps.FeeSvc, validate: deps.Validate}

	fg := g.Group("/fees", jwt)
	fg.GET("", api.query, adminMiddleware())
	fg.GET("/stats", api.stats, adminMiddleware())
	fg.GET("/overdue", api.queryOverdue, adminMiddleware())
	fg.GET("/student/:studentID", api.queryByStudent, roleMiddleware(user.RoleParent, user.RoleStudent))
	fg.POST("", api.create, adminMiddleware())
	fg.GET("/:id", api.retrieve)
	fg.PUT("/:id", api.update, adminMiddleware())
	fg.DELETE("/:id", api.destroy, adminMiddleware())
	fg.POST("/:id/payments", api.makePayment, roleMiddleware(user.RoleParent))
}

func (api *feeApi) create(ctx echo.Context) error {
	var data fee.NewFee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFee")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	f, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (api *feeApi) query(ctx echo.Context) error {
	var (
		fees []fee.Fee
		err  error
	)
	if status := ctx.QueryParam("status"); status != "" {
		fees, err = api.svc.QueryByStatus(status)
	} else {
		fees, err = api.svc.QueryAll()
	}
	if err != nil {
		return errors.Wrap(err, "querying fees")
	}
	return ctx.JSON(http.StatusOK, fees)
}

func (api *feeApi) queryOverdue(ctx echo.Context) error {
	fees, err := api.svc.QueryOverdue()
	if err != nil {
		return errors.Wrap(err, "querying overdue fees")
	}
	return ctx.JSON(http.StatusOK, fees)
}

func (api *feeApi) queryByStudent(ctx echo.Context) error {
	fees, err := api.svc.QueryByStudent(ctx.Param("studentID"))
	if err != nil {
		return errors.Wrap(err, "querying student fees")
	}
	return ctx.JSON(http.StatusOK, fees)
}

func (api *feeApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats()
	if err != nil {
		return errors.Wrap(err, "computing fee stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *feeApi) retrieve(ctx echo.Context) error {
	f, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *feeApi) update(ctx echo.Context) error {
	var data fee.UpdateFee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateFee")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	f, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *feeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// makePayment records an offline/manual payment against the fee.
func (api *feeApi) makePayment(ctx echo.Context) error {
	var data fee.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if claims, err := getContextClaims(ctx); err == nil && data.PaidBy == "" {
		data.PaidBy = claims.Name
	}

	f, err := api.svc.MakePayment(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, f)
}
