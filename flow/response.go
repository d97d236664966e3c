package flow

type Button struct {
	Label   string
	Payload string
}

func button(label string, c Choice) Button {
	return Button{Label: label, Payload: c.Payload()}
}

// Response is what the adapter should show. Choices are rows of buttons.
type Response struct {
	Text    string
	Choices [][]Button
	// Edit asks to replace the message that carried the event instead of sending a new one.
	Edit bool
}

func reply(text string, rows ...[]Button) *Response {
	return &Response{Text: text, Choices: rows}
}

func mainMenu() [][]Button {
	return [][]Button{
		{button("➕ Поставить плюсик", NewChoice(ActMenu, SubGive, nil))},
		{button("📊 Мой статус", NewChoice(ActMenu, SubStatus, nil))},
		{button("🛍 Магазин", NewChoice(ActMenu, SubShop, nil))},
	}
}

func withMenu(text string) *Response {
	return reply(text, mainMenu()...)
}

func backRow() []Button {
	return []Button{button("⬅️ Назад", NewChoice(ActMenu, SubBack, nil))}
}
