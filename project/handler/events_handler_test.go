package handler

import (
	"testing"

	"issue-sync-bot/project/dto"
	"issue-sync-bot/project/service"
)

func TestExtractMessageEvent(t *testing.T) {
	tests := []struct {
		name   string
		ev     dto.SlackEvent
		want   *service.MessageEvent
		wantOK bool
	}{
		{
			name: "新規投稿",
			ev: dto.SlackEvent{
				Type:      "message",
				User:      "U1",
				Text:      "newissue\nPriority: P1",
				Channel:   "C1",
				Timestamp: "1726000000.123456",
			},
			want: &service.MessageEvent{
				ChannelID: "C1",
				MessageTS: "1726000000.123456",
				Text:      "newissue\nPriority: P1",
				UserID:    "U1",
			},
			wantOK: true,
		},
		{
			name: "スレッド内の投稿は親スレッド TS を保持する",
			ev: dto.SlackEvent{
				Type:      "message",
				User:      "U1",
				Text:      "newissue\nPriority: P1",
				Channel:   "C1",
				Timestamp: "1726000000.123456",
				ThreadTs:  "1725990000.000100",
			},
			want: &service.MessageEvent{
				ChannelID: "C1",
				MessageTS: "1726000000.123456",
				ThreadTS:  "1725990000.000100",
				Text:      "newissue\nPriority: P1",
				UserID:    "U1",
			},
			wantOK: true,
		},
		{
			name: "メッセージ以外のイベントは対象外",
			ev: dto.SlackEvent{
				Type:    "app_mention",
				Text:    "newissue",
				Channel: "C1",
			},
			wantOK: false,
		},
		{
			name: "Bot 投稿は対象外",
			ev: dto.SlackEvent{
				Type:      "message",
				BotID:     "B1",
				Text:      "newissue",
				Channel:   "C1",
				Timestamp: "1726000000.123456",
			},
			wantOK: false,
		},
		{
			name: "編集は編集前メッセージの ts を論理識別子にする",
			ev: dto.SlackEvent{
				Type:      "message",
				SubType:   "message_changed",
				Channel:   "C1",
				Timestamp: "1726000500.000001",
				Message: &dto.SlackInnerMessage{
					User:      "U1",
					Text:      "newissue\nPriority: P0",
					Timestamp: "1726000000.123456",
					ThreadTs:  "1725990000.000100",
				},
				PreviousMessage: &dto.SlackInnerMessage{
					User:      "U1",
					Text:      "newissue\nPriority: P1",
					Timestamp: "1726000000.123456",
				},
			},
			want: &service.MessageEvent{
				ChannelID: "C1",
				MessageTS: "1726000000.123456",
				ThreadTS:  "1725990000.000100",
				Text:      "newissue\nPriority: P0",
				UserID:    "U1",
				IsEdit:    true,
			},
			wantOK: true,
		},
		{
			name: "previous_message が無い編集は編集後の ts を使う",
			ev: dto.SlackEvent{
				Type:    "message",
				SubType: "message_changed",
				Channel: "C1",
				Message: &dto.SlackInnerMessage{
					User:      "U1",
					Text:      "newissue\nPriority: P0",
					Timestamp: "1726000000.123456",
				},
			},
			want: &service.MessageEvent{
				ChannelID: "C1",
				MessageTS: "1726000000.123456",
				Text:      "newissue\nPriority: P0",
				UserID:    "U1",
				IsEdit:    true,
			},
			wantOK: true,
		},
		{
			name: "Bot メッセージの編集は対象外",
			ev: dto.SlackEvent{
				Type:    "message",
				SubType: "message_changed",
				Channel: "C1",
				Message: &dto.SlackInnerMessage{
					BotID:     "B1",
					Text:      "newissue",
					Timestamp: "1726000000.123456",
				},
			},
			wantOK: false,
		},
		{
			name: "削除イベントは対象外",
			ev: dto.SlackEvent{
				Type:    "message",
				SubType: "message_deleted",
				Channel: "C1",
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractMessageEvent(tt.ev)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if *got != *tt.want {
				t.Errorf("got = %+v, want %+v", got, tt.want)
			}
		})
	}
}
