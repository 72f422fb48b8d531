package bot

import "gopkg.in/telebot.v4"

func (b *Bot) sendInfoCTF(uc *UpdateContext) {
	b.sendPhotoAsset(uc, "ctf.png", "Інформація про CTF 🚩")
	b.send(uc,
		"<b>BEST CTF — це командні змагання з кібербезпеки, в яких учасники виконують завдання з різних категорій.</b>\n"+
			"За виконання завдань вам розкриваються прапорці 🚩, за які ви отримуєте бали. 🏅\n"+
			"👉 Стиль змагань — <b>Jeopardy</b>:\n"+
			"📌 Категорії:\n\n"+
			"  <b>🔐 Cryptography</b>\n"+
			"  <b>🔄 Reverse</b>\n"+
			"  <b>💥 PWN</b>\n"+
			"  <b>🕵️‍♂️ Forensic</b>\n"+
			"  <b>🌐 OSINT</b>\n"+
			"  <b>🧩 MISC</b>\n\n"+
			"А наприкінці усі зможуть позмагатись у додаткових номінаціях, а саме: \n"+
			"<b>King of the Hill 👑</b> або <b>Write-Up competition 📝</b>\n\n"+
			"<b>Дата проведення: 22 листопада 2025 🚩</b>\n"+
			"Тому позначай цей день у календарі, щоб не пропустити 🗓 \nДо зустрічі, чемпіоне! 😄",
		backToMainKeyboard(), telebot.ModeHTML)
}

func (b *Bot) sendInfoBEST(uc *UpdateContext) {
	b.sendPhotoAsset(uc, "best.png", "Хто такі BEST Lviv ❓")
	b.send(uc,
		"<b>BEST Lviv</b> — це осередок міжнародної <b>неприбуткової, непартійної, молодіжної організації</b>.\n"+
			"Створено у <b>2002</b> році при <b>Національному університеті \"Львівська політехніка\"</b>.\n\n"+
			"Наша діяльність: <b>налагодження зв’язків між cтудентами, компаніями та університетом</b>.\n"+
			"Ми — один із трьох LBG в Україні (<b>Київ, Львів, Вінниця</b>).\n\n"+
			"🎯 <b>Місія</b>: розвиток студентів.\n"+
			"🌍 <b>Візія</b>: сила у різноманітті.\n\n"+
			"Щороку ми організовуємо близько <b>5 масштабних івентів</b>, серед яких:\n\n"+
			"  <b>🚩 CTF</b> (Capture the Flag)\n"+
			"  <b>👾 HACKath0n</b>\n"+
			"  <b>🚀 BEC</b> (Best Engineering Competition)\n"+
			"  <b>🎓 BTW</b> (BEST Training Week)\n"+
			"  <b>💼 ІЯК</b> (Інженерний Ярмарок Кар’єри)",
		backToMainKeyboard(), telebot.ModeHTML)
}
