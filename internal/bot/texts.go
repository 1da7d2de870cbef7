package bot

import (
	"fmt"

	"github.com/tandembot/tandem/internal/messaging"
	"github.com/tandembot/tandem/internal/models"
)

// Reply keyboard button labels. Incoming text is matched against these, so
// changing a label is a breaking change for participants mid-conversation.
const (
	ButtonJoin   = "Join"
	ButtonCreate = "Create"
	ButtonReady  = "Ready!"
)

const (
	textWelcome = "Hi! Good to see you."
	textHelp    = "This is a question game for two.\n\n" +
		"One of you taps Create, picks a question set and shares the room code. " +
		"The other taps Join and sends that code. Answer each question out loud, " +
		"rate each other's answers, and tap Ready! to move on. " +
		"At the end you both get a report.\n\nSend /start to begin."

	textError          = "Something went wrong, try again"
	textErrorInternal  = "Internal error, please try again later"
	textUnknownCommand = "I don't know that command, try /help"

	textInsertRoomCode = "Send me the room code"
	textWrongRoomCode  = "Wrong room code, try again"
	textRoomFull       = "That room is already full"

	textChoosePack       = "Choose a question set"
	textPackDoesNotExist = "There is no such set, pick one from the keyboard"

	textWaitingForPartner        = "Waiting for your partner"
	textWaitingForPartnerRatings = "Waiting for your partner's ratings"
	textReadyForNext             = "Tell me when you are ready to continue"
	textEvaluatingResults        = "That was the last question! Hold on while I sum things up..."
	textWaitAMoment              = "Just a moment..."

	textAskImportance = "How much does the answer matter to you?"
	textAskEvaluation = "How do you rate the answer?"
)

// Five-step rating scales, lowest to highest.
var (
	importanceEmojis = [5]string{"🥱", "🤔", "😌", "❗", "‼️"}
	evaluationEmojis = [5]string{"😡", "🙁", "😐", "😊", "😀"}
)

func welcomeKeyboard() [][]string { return [][]string{{ButtonJoin, ButtonCreate}} }

func readyKeyboard() [][]string { return [][]string{{ButtonReady}} }

func packKeyboard(names []string) [][]string {
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name})
	}
	return rows
}

func questionHeader(position, total int) string {
	return fmt.Sprintf("<b>📒Question %d of %d:</b>\n", position, total)
}

func roomCodeMessage(code string) string {
	return fmt.Sprintf("%s\nRoom code: %s", textWaitingForPartner, code)
}

func scaleEmojis(typ int) [5]string {
	if typ == models.CallbackTypeImportance {
		return importanceEmojis
	}
	return evaluationEmojis
}

// ratingAck is the short notification shown when a scale button is tapped.
func ratingAck(typ, idx int) string {
	scale := scaleEmojis(typ)
	if idx < 0 || idx >= len(scale) {
		return ""
	}
	return fmt.Sprintf("Score: %s", scale[idx])
}

// ratingOptions builds one scale row. The selected value, when in range,
// is rendered in parentheses so the tapped button stays visible after the
// keyboard is re-drawn.
func ratingOptions(typ, selected int, sessionID string) []messaging.InlineOption {
	scale := scaleEmojis(typ)
	options := make([]messaging.InlineOption, 0, len(scale))
	for i, emoji := range scale {
		label := emoji
		if i == selected {
			label = fmt.Sprintf("(%s)", emoji)
		}
		payload := models.RatingCallback{Idx: i, Typ: typ, RoomID: sessionID}
		options = append(options, messaging.InlineOption{Label: label, Data: payload.Encode()})
	}
	return options
}
