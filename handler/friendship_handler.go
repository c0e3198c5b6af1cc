package handler

import (
	"filmorate_social/service"
	"filmorate_social/utils"

	"github.com/gin-gonic/gin"
)

type FriendshipHandler struct {
	socialSvc *service.SocialService
}

func NewFriendshipHandler(socialSvc *service.SocialService) *FriendshipHandler {
	return &FriendshipHandler{socialSvc: socialSvc}
}

// AddFriend 添加好友（对方已添加自己时双方成为互相好友）
// PUT /api/v1/users/:id/friends/:friendId
func (h *FriendshipHandler) AddFriend(c *gin.Context) {
	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	friendID, ok := uuidParam(c, "friendId")
	if !ok {
		return
	}

	result, err := h.socialSvc.AddFriend(c.Request.Context(), userID, friendID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// RemoveFriend 删除好友
// DELETE /api/v1/users/:id/friends/:friendId
func (h *FriendshipHandler) RemoveFriend(c *gin.Context) {
	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	friendID, ok := uuidParam(c, "friendId")
	if !ok {
		return
	}

	result, err := h.socialSvc.RemoveFriend(c.Request.Context(), userID, friendID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// GetFriendship 两人关系状态
// GET /api/v1/users/:id/friends/:friendId
func (h *FriendshipHandler) GetFriendship(c *gin.Context) {
	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	friendID, ok := uuidParam(c, "friendId")
	if !ok {
		return
	}

	status, err := h.socialSvc.GetFriendship(c.Request.Context(), userID, friendID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, status)
}

// ListFriends 好友列表
// GET /api/v1/users/:id/friends
func (h *FriendshipHandler) ListFriends(c *gin.Context) {
	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	friends, err := h.socialSvc.ListFriends(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"friends": friends,
		"total":   len(friends),
	})
}

// ListCommonFriends 共同好友
// GET /api/v1/users/:id/friends/common/:otherId
func (h *FriendshipHandler) ListCommonFriends(c *gin.Context) {
	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	otherID, ok := uuidParam(c, "otherId")
	if !ok {
		return
	}

	friends, err := h.socialSvc.ListCommonFriends(c.Request.Context(), userID, otherID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"friends": friends,
		"total":   len(friends),
	})
}
