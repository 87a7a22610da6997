package bot

import (
	"fmt"
	"strings"

	"github.com/example/jdoitbot/internal/session"
	"github.com/example/jdoitbot/pkg/models"
)

// FormatOutcome renders a successful grading outcome as the bot's Markdown
// score card.
func FormatOutcome(outcome *session.Outcome) string {
	s := outcome.Result

	scoreEmoji := "💪"
	if s.Pronunciation >= 90 {
		scoreEmoji = "🏆"
	} else if s.Pronunciation >= 70 {
		scoreEmoji = "🙂"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s **평가 결과**\n", scoreEmoji)
	fmt.Fprintf(&sb, "📊 종합 점수: **%.0f점**\n\n", s.Pronunciation)
	fmt.Fprintf(&sb, "🎯 정확도: %.0f | 🌊 유창성: %.0f\n", s.Accuracy, s.Fluency)
	fmt.Fprintf(&sb, "🧩 완결성: %.0f\n\n", s.Completeness)
	fmt.Fprintf(&sb, "📝 인식된 발음:\n\"%s\"", s.RecognizedText)

	if errs := s.MiscuedWords(); len(errs) > 0 {
		sb.WriteString("\n\n⚠️ **피드백**:")
		for _, e := range errs {
			sb.WriteString(fmt.Sprintf("\n- %s: %s", e.Word, errorTypeLabel(e.ErrorType)))
		}
	}

	if outcome.Advanced {
		fmt.Fprintf(&sb, "\n\n✅ 진도가 Day %d로 업데이트되었습니다!", outcome.CurrentDay)
	}
	if outcome.SyncWarning {
		sb.WriteString("\n⚠️ 진도 저장에 문제가 있었습니다. 다음 접속 시 진도가 되돌아갈 수 있습니다.")
	}
	return sb.String()
}

func errorTypeLabel(errorType string) string {
	switch errorType {
	case models.ErrorTypeMispronunciation:
		return "❌ 발음"
	case models.ErrorTypeOmission:
		return "🗑 누락"
	case models.ErrorTypeInsertion:
		return "➕ 추임새"
	default:
		return errorType
	}
}
