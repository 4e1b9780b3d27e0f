package cache

import (
	"time"
)

// TimeUntilNextClose は次のニューヨーク市場の引け（16:00 America/New_York）までの期間を返します。
// 引け後に取り込まれるデータのキャッシュTTLとして使用します。
func TimeUntilNextClose() time.Duration {
	return timeUntilNextClose(time.Now())
}

func timeUntilNextClose(now time.Time) time.Duration {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	now = now.In(loc)

	// 次の16時を計算
	next := time.Date(now.Year(), now.Month(), now.Day(), 16, 0, 0, 0, loc)

	// 今日の16時が既に過ぎている場合は翌日の16時を使用
	if !now.Before(next) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, 16, 0, 0, 0, loc)
	}

	return next.Sub(now)
}
