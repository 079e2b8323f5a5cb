package http

import (
	"net/http"

	"github.com/dkeye/DrawQuiz/internal/app"
	"github.com/dkeye/DrawQuiz/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

type roomHandlers struct {
	rooms     *app.RoomService
	publicURL string
}

func (h *roomHandlers) inviteURL(code domain.InviteCode) string {
	return h.publicURL + "/join/" + string(code)
}

type createRoomRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	HostName string `json:"hostName"`
}

type createRoomResponse struct {
	app.CreateRoomResult
	InviteURL string `json:"inviteUrl"`
}

func (h *roomHandlers) create(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	res, err := h.rooms.Create(c.Request.Context(), app.CreateRoomInput{
		Name:     req.Name,
		Capacity: req.Capacity,
		HostName: req.HostName,
	}, bearer(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createRoomResponse{CreateRoomResult: res, InviteURL: h.inviteURL(res.InviteCode)})
}

func (h *roomHandlers) get(c *gin.Context) {
	view, err := h.rooms.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type joinRequest struct {
	Name string `json:"name"`
}

func (h *roomHandlers) join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	res, err := h.rooms.Join(c.Request.Context(), domain.InviteCode(c.Param("code")), req.Name, bearer(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *roomHandlers) leave(c *gin.Context) {
	if err := h.rooms.Leave(c.Request.Context(), domain.InviteCode(c.Param("code")), bearer(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type kickRequest struct {
	MemberID domain.MemberID `json:"memberId"`
	Identity domain.Identity `json:"identity"`
}

func (h *roomHandlers) kick(c *gin.Context) {
	var req kickRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.MemberID == "" && req.Identity == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "memberId or identity required"})
		return
	}
	res, err := h.rooms.Kick(c.Request.Context(), domain.InviteCode(c.Param("code")),
		app.KickInput{MemberID: req.MemberID, Identity: req.Identity}, bearer(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type updateRoomRequest struct {
	Capacity int `json:"capacity"`
}

func (h *roomHandlers) update(c *gin.Context) {
	var req updateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := h.rooms.Update(c.Request.Context(), domain.InviteCode(c.Param("code")), req.Capacity, bearer(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// qr renders the invite link of an existing room as a PNG.
func (h *roomHandlers) qr(c *gin.Context) {
	view, err := h.rooms.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	png, err := qrcode.Encode(h.inviteURL(view.InviteCode), qrcode.Medium, qrSize)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("qr encode")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr generation failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
