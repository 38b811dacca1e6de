package server

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	documentdomain "github.com/smallbiznis/folio/internal/document/domain"
)

func documentID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid document id"))
		return 0, false
	}
	return id, true
}

func (s *Server) CreateDocument(c *gin.Context) {
	var req documentdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.IdempotencyKey = idempotencyKey(c)

	view, err := s.documentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (s *Server) GetDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	view, err := s.documentSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) UpdateDraftDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	var req documentdomain.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.DocumentID = id

	view, err := s.documentSvc.UpdateDraft(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) PostDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	var req documentdomain.PostRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}
	req.DocumentID = id
	req.IdempotencyKey = idempotencyKey(c)
	req.OverridePermitted = overridePermitted(c)

	result, err := s.documentSvc.Post(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) VoidDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	var req documentdomain.VoidRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}
	req.DocumentID = id
	req.IdempotencyKey = idempotencyKey(c)

	result, err := s.documentSvc.Void(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) ApplyDebitNote(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	var req documentdomain.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.DebitNoteID = id
	req.IdempotencyKey = idempotencyKey(c)

	result, err := s.documentSvc.Apply(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) UnapplyDebitNote(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	var req documentdomain.UnapplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.DebitNoteID = id
	req.IdempotencyKey = idempotencyKey(c)

	if err := s.documentSvc.Unapply(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) SubmitPurchaseOrder(c *gin.Context) {
	s.transitionPurchaseOrder(c, s.documentSvc.Submit)
}

func (s *Server) ApprovePurchaseOrder(c *gin.Context) {
	s.transitionPurchaseOrder(c, s.documentSvc.Approve)
}

func (s *Server) SendPurchaseOrder(c *gin.Context) {
	s.transitionPurchaseOrder(c, s.documentSvc.Send)
}

func (s *Server) ClosePurchaseOrder(c *gin.Context) {
	s.transitionPurchaseOrder(c, s.documentSvc.Close)
}

func (s *Server) CancelPurchaseOrder(c *gin.Context) {
	s.transitionPurchaseOrder(c, s.documentSvc.Cancel)
}

func (s *Server) transitionPurchaseOrder(c *gin.Context, transition func(ctx context.Context, id snowflake.ID) (*documentdomain.View, error)) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	view, err := transition(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) ReceivePurchaseOrder(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	var req documentdomain.ReceiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.DocumentID = id
	req.IdempotencyKey = idempotencyKey(c)

	result, err := s.documentSvc.Receive(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
