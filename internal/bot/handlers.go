package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/example/jdoitbot/internal/audio"
	"github.com/example/jdoitbot/internal/session"
	"github.com/example/jdoitbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleUpdate handles incoming updates from Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.handleStartCommand(msg)
		case "homework":
			b.handleHomeworkCommand(msg)
		case "stats":
			b.handleStatsCommand(msg)
		case "reload":
			if b.isAdmin(msg.From.ID) {
				b.handleReloadCommand(msg)
			} else {
				b.send(msg.Chat.ID, "이 명령어는 관리자만 사용할 수 있습니다.")
			}
		default:
			b.send(msg.Chat.ID, "알 수 없는 명령어입니다. /homework 로 오늘의 숙제를 받아보세요.")
		}
		return
	}

	if msg.Voice != nil {
		b.handleVoice(ctx, msg)
		return
	}

	if msg.Text != "" {
		// A plain sentence becomes the user's reference text: record a
		// voice reply to it, or just record after sending it.
		b.session.SetLastHomework(userKey(msg.Chat.ID), msg.Text)
		b.send(msg.Chat.ID, "📝 문장이 등록되었습니다. 이 메시지에 답장으로 음성 메시지를 보내주세요!")
	}
}

// handleStartCommand registers the user and explains the submission flow.
func (b *Bot) handleStartCommand(msg *tgbotapi.Message) {
	b.progress.Register(userKey(msg.Chat.ID))

	name := ""
	if msg.From != nil {
		name = msg.From.FirstName
	}
	welcome := fmt.Sprintf(
		"안녕하세요 %s님! J_Doit_homework_bot입니다. 🇰🇷\n"+
			"등록되었습니다! 매일 오후 8시에 숙제가 배달됩니다.\n\n"+
			"사용법:\n"+
			"1. 📝 읽고 싶은 문장을 텍스트로 보내세요.\n"+
			"2. 🎤 그 메시지에대고 '답장(Reply)'으로 음성 메시지를 녹음해서 보내세요.\n\n"+
			"또는, 음성 메시지를 보낼 때 'Caption(설명)'에 문장을 적어서 보내셔도 됩니다.\n\n"+
			"🚀 테스트: /homework 를 입력하면 즉시 오늘의 숙제를 받아볼 수 있습니다.",
		name,
	)
	b.send(msg.Chat.ID, welcome)
}

// handleHomeworkCommand sends the user their current day's sentences.
func (b *Bot) handleHomeworkCommand(msg *tgbotapi.Message) {
	userID := userKey(msg.Chat.ID)
	b.progress.Register(userID)

	day := b.progress.GetProgress(userID).CurrentDay
	items := b.homework.GetHomework(day)
	if len(items) == 0 {
		b.send(msg.Chat.ID, "🎉 모든 과정을 수료하셨습니다! 더 이상 숙제가 없습니다.")
		return
	}

	if err := b.SendHomework(userID, day, items); err != nil {
		log.Printf("Error sending homework to %s: %v", userID, err)
	}
}

// SendHomework implements scheduler.Notifier: it delivers one day's sentences
// to a user and remembers the first one as the implicit reference.
func (b *Bot) SendHomework(userID string, day int, items []models.HomeworkItem) error {
	if b.api == nil {
		return fmt.Errorf("bot is not connected yet")
	}
	chatID, err := chatKey(userID)
	if err != nil {
		return err
	}

	header := tgbotapi.NewMessage(chatID, fmt.Sprintf("📚 [Day %d] 오늘의 숙제는 총 %d개 입니다.", day, len(items)))
	if _, err := b.api.Send(header); err != nil {
		return fmt.Errorf("failed to send homework header: %v", err)
	}

	for idx, hw := range items {
		text := fmt.Sprintf("#%d. 다음 문장을 읽어주세요:\n\n\"%s\"", idx+1, hw.Text)
		if hw.AudioURL != "" {
			text += fmt.Sprintf("\n\n🎧 참고 오디오: %s", hw.AudioURL)
		}
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			return fmt.Errorf("failed to send homework item: %v", err)
		}
	}

	b.session.SetLastHomework(userID, items[0].Text)
	return nil
}

// handleStatsCommand reports the user's submission history summary.
func (b *Bot) handleStatsCommand(msg *tgbotapi.Message) {
	userID := userKey(msg.Chat.ID)
	prog := b.progress.GetProgress(userID)

	stats, err := b.submissions.GetUserStats(userID)
	if err != nil {
		log.Printf("Error getting stats for %s: %v", userID, err)
		b.send(msg.Chat.ID, "📊 통계를 불러올 수 없습니다.")
		return
	}

	b.send(msg.Chat.ID, fmt.Sprintf(
		"📊 나의 현황\n현재 진도: Day %d\n제출한 녹음: %d개\n평균 점수: %.0f점\n최고 점수: %.0f점",
		prog.CurrentDay, stats.Total, stats.AvgPronunciation, stats.BestScore,
	))
}

// handleReloadCommand re-reads the homework workbook.
func (b *Bot) handleReloadCommand(msg *tgbotapi.Message) {
	type reloader interface{ Reload() }
	if r, ok := b.homework.(reloader); ok {
		r.Reload()
		b.send(msg.Chat.ID, "✅ 숙제 목록을 다시 불러왔습니다.")
		return
	}
	b.send(msg.Chat.ID, "현재 숙제 저장소는 다시 불러오기를 지원하지 않습니다.")
}

// handleVoice downloads the recording and runs it through the grading flow.
func (b *Bot) handleVoice(ctx context.Context, msg *tgbotapi.Message) {
	req := session.SubmissionRequest{
		UserID:  userKey(msg.Chat.ID),
		Caption: msg.Caption,
	}
	if msg.ReplyToMessage != nil {
		req.ReplyText = msg.ReplyToMessage.Text
	}

	status, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "🎧 분석 중..."))
	if err != nil {
		log.Printf("Error sending status message: %v", err)
		return
	}

	fileURL, err := b.api.GetFileDirectURL(msg.Voice.FileID)
	if err != nil {
		log.Printf("Error resolving voice file for %d: %v", msg.Chat.ID, err)
		b.edit(status, "⚠️ 음성 파일을 받을 수 없습니다. 다시 시도해주세요.")
		return
	}

	oggPath, err := audio.Download(ctx, fileURL)
	if err != nil {
		log.Printf("Error downloading voice file for %d: %v", msg.Chat.ID, err)
		b.edit(status, "⚠️ 음성 파일을 받을 수 없습니다. 다시 시도해주세요.")
		return
	}
	defer os.Remove(oggPath)
	req.AudioPath = oggPath

	outcome, err := b.session.Grade(ctx, req)
	switch {
	case errors.Is(err, session.ErrNoReference):
		b.edit(status,
			"⚠️ 평가할 대본을 찾을 수 없습니다.\n"+
				"1. '/homework'로 숙제를 받거나\n"+
				"2. 텍스트 메시지에 답장으로 녹음하거나\n"+
				"3. 캡션에 텍스트를 적어주세요.")
		return
	case errors.Is(err, session.ErrConversionFailed):
		b.edit(status, "⚠️ 오디오 변환 실패. 서버에 ffmpeg가 설치되어 있는지 확인해주세요.")
		return
	case err != nil:
		log.Printf("Grading error for %d: %v", msg.Chat.ID, err)
		b.edit(status, "⚠️ 처리 중 오류가 발생했습니다.")
		return
	}

	if !outcome.Result.IsSuccess() {
		b.edit(status, fmt.Sprintf("😥 평가 실패: %s", outcome.Result.Message))
		return
	}

	b.editMarkdown(status, FormatOutcome(outcome))
}

func (b *Bot) edit(msg tgbotapi.Message, text string) {
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, msg.MessageID, text)
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Error editing message %d: %v", msg.MessageID, err)
	}
}

func (b *Bot) editMarkdown(msg tgbotapi.Message, text string) {
	edit := tgbotapi.NewEditMessageText(msg.Chat.ID, msg.MessageID, text)
	edit.ParseMode = "Markdown"
	if _, err := b.api.Send(edit); err != nil {
		log.Printf("Error editing message %d: %v", msg.MessageID, err)
	}
}
