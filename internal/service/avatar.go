package service

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// AvatarSource picks a default profile picture for new accounts.
type AvatarSource interface {
	RandomAvatar() string
}

// numberedAvatars serves {base}/{1..count}.png.
type numberedAvatars struct {
	base  string
	count int
}

func NewAvatarSource(baseURL string) AvatarSource {
	return &numberedAvatars{base: strings.TrimSuffix(baseURL, "/"), count: 100}
}

func (a *numberedAvatars) RandomAvatar() string {
	return fmt.Sprintf("%s/%d.png", a.base, rand.IntN(a.count)+1)
}
