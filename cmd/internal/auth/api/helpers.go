package authapi

import "conduit/cmd/internal/auth"

func toUserResponse(id auth.Identity, token string) userResponse {
	return userResponse{
		ID:       id.ID,
		Email:    id.Email,
		Token:    token,
		Username: id.Username,
		Bio:      id.Bio,
		Image:    id.Image,
	}
}
