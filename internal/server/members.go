package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	memberdomain "github.com/inkpress/inkpress/internal/member/domain"
)

type createMemberRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type memberResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Subscribed bool      `json:"subscribed"`
	TierID     *string   `json:"tier_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s *Server) CreateMember(c *gin.Context) {
	var req createMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		AbortWithError(c, memberdomain.ErrInvalidEmail)
		return
	}

	existing, err := s.memberRepo.FindByEmail(c.Request.Context(), s.db, email)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if existing != nil {
		AbortWithError(c, ErrConflict)
		return
	}

	now := time.Now().UTC()
	member := &memberdomain.Member{
		ID:         s.genID.Generate().Int64(),
		Email:      email,
		Name:       strings.TrimSpace(req.Name),
		Status:     memberdomain.StatusFree,
		Subscribed: false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.memberRepo.Create(c.Request.Context(), s.db, member); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toMemberResponse(member)})
}

func (s *Server) GetMemberByID(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	member, err := s.memberRepo.FindByID(c.Request.Context(), s.db, id.Int64())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if member == nil {
		AbortWithError(c, memberdomain.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toMemberResponse(member)})
}

func toMemberResponse(member *memberdomain.Member) memberResponse {
	resp := memberResponse{
		ID:         snowflake.ID(member.ID).String(),
		Email:      member.Email,
		Name:       member.Name,
		Status:     string(member.Status),
		Subscribed: member.Subscribed,
		CreatedAt:  member.CreatedAt,
		UpdatedAt:  member.UpdatedAt,
	}
	if member.TierID != nil {
		tierID := snowflake.ID(*member.TierID).String()
		resp.TierID = &tierID
	}
	return resp
}
