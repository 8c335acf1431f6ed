package service

import (
	"net/url"
	"strings"
)

const surveyPath = "/survey-form-folder/survey.html"

// LinkBuilder derives referral links; they are never stored.
type LinkBuilder struct {
	baseURL string
}

func NewLinkBuilder(baseURL string) LinkBuilder {
	return LinkBuilder{baseURL: strings.TrimRight(baseURL, "/")}
}

func (l LinkBuilder) ReferralLink(username string) string {
	return l.baseURL + surveyPath + "?ref=" + url.QueryEscape(username)
}
