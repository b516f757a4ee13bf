package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	webmail "github.com/emailapp/webmail"
)

// mailbox returns the mailbox client for the authenticated user.
func (s *Server) mailbox(c *fiber.Ctx) webmail.Mailbox {
	return s.svc.Client(authedUserID(c))
}

// listOpts reads paging parameters from the query string.
func listOpts(c *fiber.Ctx) webmail.ListOptions {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return webmail.ListOptions{Limit: limit, Offset: offset}
}

// sendMail delivers a mail from the authenticated user.
func (s *Server) sendMail(c *fiber.Ctx) error {
	var req SendMailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	res, err := s.mailbox(c).Send(c.Context(), webmail.SendRequest{
		Recipients:     req.Recipients,
		Subject:        req.Subject,
		Body:           req.Body,
		HasAttachments: req.HasAttachments,
	})
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(SendMailResponse{
		MailID:       res.MailID,
		RecipientIDs: res.RecipientIDs,
		SentAt:       res.SentAt,
	})
}

// listFolder builds a handler for one folder listing.
func (s *Server) listFolder(folder webmail.Folder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		views, err := s.mailbox(c).Folder(c.Context(), folder, listOpts(c))
		if err != nil {
			return s.fail(c, err)
		}

		mails := make([]MailResponse, 0, len(views))
		for i := range views {
			mails = append(mails, toMailResponse(&views[i]))
		}
		return c.JSON(MailListResponse{Mails: mails, Count: len(mails)})
	}
}

// unreadCount returns the user's unread counter.
func (s *Server) unreadCount(c *fiber.Ctx) error {
	count, err := s.mailbox(c).UnreadCount(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(UnreadCountResponse{UnreadCount: count})
}

// getMail returns the caller's view of one mail.
func (s *Server) getMail(c *fiber.Ctx) error {
	view, err := s.mailbox(c).Get(c.Context(), c.Params("mailId"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(toMailResponse(view))
}

// markRead marks one mail as read.
func (s *Server) markRead(c *fiber.Ctx) error {
	if err := s.mailbox(c).MarkRead(c.Context(), c.Params("mailId")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// toggleStar flips the starred flag and returns the new value.
func (s *Server) toggleStar(c *fiber.Ctx) error {
	starred, err := s.mailbox(c).ToggleStar(c.Context(), c.Params("mailId"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(StarResponse{IsStarred: starred})
}

// deleteMail advances the mail's delete state.
func (s *Server) deleteMail(c *fiber.Ctx) error {
	res, err := s.mailbox(c).Delete(c.Context(), c.Params("mailId"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(DeleteResponse{Trashed: res.Trashed, Purged: res.Purged})
}

// mailSummary returns an AI digest of one mail's content.
func (s *Server) mailSummary(c *fiber.Ctx) error {
	mailID := c.Params("mailId")

	view, err := s.mailbox(c).Get(c.Context(), mailID)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(SummaryResponse{
		MailID:  mailID,
		Summary: s.svc.Summarize(c.Context(), view.Body),
	})
}

// smartReplies returns suggested replies for one mail.
func (s *Server) smartReplies(c *fiber.Ctx) error {
	mailID := c.Params("mailId")

	view, err := s.mailbox(c).Get(c.Context(), mailID)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(SmartRepliesResponse{
		MailID:  mailID,
		Replies: s.svc.SmartReplies(c.Context(), view.Body),
	})
}
