package spcaptcha

import (
	"fmt"
	"strings"

	"github.com/mojocn/base64Captcha"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"sitepulse/internal/spredis"
)

// Captchas issues and checks the math captcha protecting the contact form.
type Captchas struct {
	store  base64Captcha.Store
	driver base64Captcha.Driver
}

// New builds the captcha service. With a Redis client the answers are
// shared through it, otherwise the in-process store is used.
func New(client *redis.Client) *Captchas {
	var store base64Captcha.Store
	if client != nil {
		store = spredis.New(client)
	} else {
		store = base64Captcha.DefaultMemStore
	}

	driver := base64Captcha.NewDriverMath(
		80,
		240,
		6,
		base64Captcha.OptionShowHollowLine,
		nil,
		nil,
		nil,
	)

	return &Captchas{
		store:  store,
		driver: driver,
	}
}

// Generate returns the payload for the contact form. Outside production the
// answer is included so local testing does not need to read the image.
func (cap *Captchas) Generate(production bool) (map[string]any, error) {
	captcha := base64Captcha.NewCaptcha(cap.driver, cap.store)

	id, b64s, answer, err := captcha.Generate()
	if err != nil {
		return nil, fmt.Errorf("captcha generation failed")
	}

	data := map[string]any{
		"captcha_id": id,
		"image":      b64s,
		"answer":     "",
	}

	if !production {
		log.Debug().Str("id", id).Str("answer", answer).Msg("captcha generated")
		data["answer"] = answer
	}

	return data, nil
}

func (cap *Captchas) Verify(captchaID string, captchaAnswer string) error {
	captchaID = strings.TrimSpace(captchaID)
	captchaAnswer = strings.TrimSpace(captchaAnswer)

	if captchaID == "" || captchaAnswer == "" {
		return fmt.Errorf("missing captcha")
	}

	if !cap.store.Verify(captchaID, captchaAnswer, true) {
		return fmt.Errorf("wrong captcha")
	}
	return nil
}
