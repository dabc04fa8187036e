package models

import "encoding/xml"

// XMLTV is the subset of an XMLTV document the console inspects after export.
type XMLTV struct {
	XMLName    xml.Name         `xml:"tv"`
	Channels   []XMLTVChannel   `xml:"channel"`
	Programmes []XMLTVProgramme `xml:"programme"`
}

type XMLTVChannel struct {
	ID          string   `xml:"id,attr"`
	DisplayName []string `xml:"display-name"`
}

type XMLTVProgramme struct {
	Channel string `xml:"channel,attr"`
	Start   string `xml:"start,attr"`
	Stop    string `xml:"stop,attr"`
	Title   string `xml:"title"`
	Desc    string `xml:"desc"`
}

// DIYPSchedule is one channel-day of the DIYP JSON feed.
type DIYPSchedule struct {
	ChannelName string          `json:"channel_name" yaml:"channel_name"`
	Date        string          `json:"date" yaml:"date"`
	EPGData     []DIYPProgramme `json:"epg_data" yaml:"epg_data"`
}

// DIYPProgramme uses "15:04" wall-clock start and end times.
type DIYPProgramme struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
	Title string `json:"title" yaml:"title"`
	Desc  string `json:"desc,omitempty" yaml:"desc,omitempty"`
}
