package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tmaswali/shule/core/comms"
	"github.com/tmaswali/shule/core/user"
)

type commsApi struct {
	svc      *comms.Service
	validate *validator.Validate
}

func registerCommsAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := commsApi{svc: deps.CommsSvc, validate: deps.Validate}

	cg := g.Group("/comms", jwt)

	cg.POST("/messages", api.sendMessage)
	cg.GET("/messages/search", api.searchMessages)
	cg.POST("/messages/:id/read", api.markMessageRead)
	cg.GET("/conversations", api.queryConversations)
	cg.GET("/conversations/:id/messages", api.queryConversationMessages)
	cg.POST("/conversations/:id/read", api.markConversationRead)

	cg.POST("/announcements", api.createAnnouncement, roleMiddleware(user.RoleTeacher))
	cg.GET("/announcements", api.queryAnnouncements)
	cg.POST("/announcements/:id/read", api.markAnnouncementRead)

	cg.POST("/notifications", api.createNotification, adminMiddleware())
	cg.GET("/notifications", api.queryNotifications)
	cg.POST("/notifications/:id/read", api.markNotificationRead)

	cg.GET("/unread", api.unreadCounts)
}

func claimsParty(claims Claims) comms.Party {
	return comms.Party{ID: claims.Subject, Name: claims.Name, Role: claims.Role}
}

func (api *commsApi) sendMessage(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data comms.NewMessage
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	msg, err := api.svc.SendMessage(claimsParty(claims), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *commsApi) searchMessages(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	msgs, err := api.svc.SearchMessages(claimsParty(claims), ctx.QueryParam("q"))
	if err != nil {
		return errors.Wrap(err, "searching messages")
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *commsApi) markMessageRead(ctx echo.Context) error {
	if err := api.svc.MarkMessageRead(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *commsApi) queryConversations(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	convs, err := api.svc.QueryUserConversations(claimsParty(claims))
	if err != nil {
		return errors.Wrap(err, "querying conversations")
	}
	return ctx.JSON(http.StatusOK, convs)
}

func (api *commsApi) queryConversationMessages(ctx echo.Context) error {
	msgs, err := api.svc.QueryConversationMessages(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *commsApi) markConversationRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.MarkConversationRead(ctx.Param("id"), claims.Subject); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *commsApi) createAnnouncement(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data comms.NewAnnouncement
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	ann, err := api.svc.CreateAnnouncement(claimsParty(claims), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (api *commsApi) queryAnnouncements(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	anns, err := api.svc.QueryUserAnnouncements(claimsParty(claims))
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *commsApi) markAnnouncementRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.MarkAnnouncementRead(ctx.Param("id"), claims.Subject); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *commsApi) createNotification(ctx echo.Context) error {
	var data comms.NewNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	notif, err := api.svc.CreateNotification(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, notif)
}

func (api *commsApi) queryNotifications(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	notifs, err := api.svc.QueryUserNotifications(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *commsApi) markNotificationRead(ctx echo.Context) error {
	if err := api.svc.MarkNotificationRead(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *commsApi) unreadCounts(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	counts, err := api.svc.QueryUnreadCounts(claimsParty(claims))
	if err != nil {
		return errors.Wrap(err, "querying unread counts")
	}
	return ctx.JSON(http.StatusOK, counts)
}
