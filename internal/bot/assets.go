package bot

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/telebot.v4"
)

// Asset delivery is best-effort: a missing or unsendable file is reported
// apologetically and the surrounding flow continues.

func (b *Bot) sendPhotoAsset(uc *UpdateContext, name, caption string) {
	path := filepath.Join(b.config.AssetsPath, name)
	if _, err := os.Stat(path); err != nil {
		uc.L().Errorf("asset %s not found: %v", path, err)
		b.send(uc, fmt.Sprintf("‼️ Виникла помилка: зображення %s не знайдено. Але не хвилюйся, продовжимо!", name))
		return
	}
	photo := &telebot.Photo{File: telebot.FromDisk(path), Caption: caption}
	if err := uc.TC().Send(photo); err != nil {
		uc.L().Errorf("failed to send asset %s: %v", path, err)
		b.send(uc, "‼️ Виникла помилка при відправці зображення. Але не хвилюйся, продовжимо!")
	}
}

func (b *Bot) sendDocumentAsset(uc *UpdateContext, name, caption string) {
	path := filepath.Join(b.config.AssetsPath, name)
	if _, err := os.Stat(path); err != nil {
		uc.L().Errorf("asset %s not found: %v", path, err)
		b.send(uc, fmt.Sprintf("‼️ Виникла помилка: файл %s не знайдено. Але не хвилюйся, продовжимо!", name))
		return
	}
	doc := &telebot.Document{File: telebot.FromDisk(path), FileName: name, Caption: caption}
	if err := uc.TC().Send(doc); err != nil {
		uc.L().Errorf("failed to send asset %s: %v", path, err)
		b.send(uc, "‼️ Виникла помилка при відправці файлу. Але не хвилюйся, продовжимо!")
	}
}
