package progress

// ResumeIndex picks the chapter a new session starts at from the user's last
// progress. It reports courseCompleted when the last completed chapter was
// the final one; the index is then clamped to the last chapter.
func ResumeIndex(lastChapterID int, lastStatus Status, chapterCount int) (index int, courseCompleted bool) {
	if chapterCount <= 0 {
		return 0, false
	}

	switch {
	case lastChapterID == NoChapter:
		index = 0
	case lastStatus == StatusCompleted:
		index = lastChapterID + 1
		if index >= chapterCount {
			index = chapterCount - 1
			courseCompleted = true
		}
	default:
		// in_progress and fail retry the same chapter.
		index = lastChapterID
	}

	if index < 0 || index >= chapterCount {
		index = 0
	}
	return index, courseCompleted
}
