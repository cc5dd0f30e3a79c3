package store

const schema = `
CREATE TABLE IF NOT EXISTS companies (
    id     INTEGER PRIMARY KEY AUTOINCREMENT,
    cik    INTEGER NOT NULL,
    ticker TEXT NOT NULL UNIQUE,
    title  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS subreddits (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    name         TEXT NOT NULL,
    subreddit_id TEXT NOT NULL UNIQUE,
    subscribers  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS submissions (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker        TEXT NOT NULL,
    subreddit_id  TEXT NOT NULL REFERENCES subreddits(subreddit_id),
    submission_id TEXT NOT NULL UNIQUE,
    created_utc   INTEGER NOT NULL,
    title         TEXT NOT NULL DEFAULT '',
    score         INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_submissions_ticker ON submissions(ticker);
CREATE INDEX IF NOT EXISTS idx_submissions_created ON submissions(created_utc);

CREATE TABLE IF NOT EXISTS comments (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    submission_id TEXT NOT NULL REFERENCES submissions(submission_id),
    comment_id    TEXT NOT NULL UNIQUE,
    created_utc   INTEGER NOT NULL,
    body          TEXT NOT NULL DEFAULT '',
    score         INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_comments_submission ON comments(submission_id);
CREATE INDEX IF NOT EXISTS idx_comments_created ON comments(created_utc);
`
