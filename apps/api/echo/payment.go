package echoapi

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmaswali/shule/core"
	"github.com/tmaswali/shule/core/fee"
	"github.com/tmaswali/shule/core/user"
)

type paymentApi struct {
	svc      core.PaymentService
	feeSvc   *fee.Service
	mailSvc  core.EmailService
	validate *validator.Validate
}

type ConfirmPaymentRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := paymentApi{svc: deps.PaymentSvc, feeSvc: deps.FeeSvc, mailSvc: deps.MailSvc, validate: deps.Validate}

	pg := g.Group("/payments", jwt, roleMiddleware(user.RoleParent))
	pg.POST("/checkout-session", api.createCheckoutSession)
	pg.GET("/session/:id", api.getSession)
	pg.POST("/confirm", api.confirm)
}

func (api *paymentApi) createCheckoutSession(ctx echo.Context) error {
	var data core.CheckoutRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckoutRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	// the fee must exist; its identity travels in the session metadata
	if _, err := api.feeSvc.GetByID(data.FeeID); err != nil {
		return err
	}

	sess, err := api.svc.CreateCheckoutSession(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *paymentApi) getSession(ctx echo.Context) error {
	sess, err := api.svc.GetSession(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving session")
	}
	return ctx.JSON(http.StatusOK, sess)
}

// confirm checks the session with the processor and, when paid, records the
// payment against the fee. Re-confirming the same session is a no-op.
func (api *paymentApi) confirm(ctx echo.Context) error {
	var data ConfirmPaymentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConfirmPaymentRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	sess, err := api.svc.GetSession(data.SessionID)
	if err != nil {
		return errors.Wrap(err, "retrieving session")
	}
	if sess.PaymentStatus != "paid" {
		return core.NewValidationError(errors.New("payment not completed"))
	}

	feeID := sess.Metadata["feeId"]
	f, err := api.feeSvc.GetByID(feeID)
	if err != nil {
		return err
	}
	for _, p := range f.Payments {
		if p.TransactionID == sess.ID {
			return ctx.JSON(http.StatusOK, f) // already recorded
		}
	}

	claims, _ := getContextClaims(ctx)
	f, err = api.feeSvc.MakePayment(feeID, fee.NewPayment{
		Amount:        float64(sess.AmountTotal) / 100,
		Method:        "Online",
		TransactionID: sess.ID,
		PaidBy:        claims.Name,
	})
	if err != nil {
		return err
	}

	if claims.Email != "" {
		api.mailSvc.SendMessages(&core.EmailMessage{
			To:      []mail.Address{{Name: claims.Name, Address: claims.Email}},
			Subject: "Payment received",
			Body: fmt.Sprintf(
				"Hi %s,\n\nWe received your payment of %.2f for %s (%s).\nTransaction: %s\n\nThank you!",
				claims.Name, float64(sess.AmountTotal)/100, f.Type, f.StudentName, sess.ID,
			),
		})
	}
	return ctx.JSON(http.StatusOK, f)
}
