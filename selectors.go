package main

// Mode is the site layout a page is rendered in
type Mode string

const (
	ModeWeb    Mode = "web"
	ModeMobile Mode = "mobile"
)

// ModeSelectors holds the ordered fallback lists for one layout
type ModeSelectors struct {
	Title          []Selector
	BodyTextarea   []Selector
	BodyEditable   []Selector
	BodyIframe     []Selector
	FrameBody      []Selector // looked up inside the editor iframe
	PhotoIcon      []Selector
	FileInput      []Selector
	SecretCheckbox []Selector
	Submit         []Selector
	WriteOnListing []Selector
	// FormMarkers prove the post form is loaded. Generic fallbacks such as a
	// bare textarea are left out since listing pages carry search boxes.
	FormMarkers    []Selector
}

// LoginSelectors are tried on every candidate login page
type LoginSelectors struct {
	LoginLink []Selector
	ID        []Selector
	Password  []Selector
	Submit    []Selector
}

var titleSelectors = []Selector{
	css("input[name='title']"),
	css("input#title"),
	css("input[name='wr_subject']"),
	css("input[type='text']"),
}

var webSelectors = ModeSelectors{
	Title: titleSelectors,
	BodyTextarea: []Selector{
		css("textarea[name='contents']"),
		css("textarea#contents"),
		css("textarea"),
	},
	BodyEditable: []Selector{
		css("div[contenteditable='true']"),
		css("[contenteditable='true']"),
	},
	BodyIframe: []Selector{
		css("iframe[name='ir1']"),
		css("iframe#ir1"),
		css("div.editor iframe"),
		css("iframe[id^='se2_iframe']"),
	},
	FrameBody: []Selector{
		css("body[contenteditable='true']"),
		css("[contenteditable='true']"),
		css("body"),
	},
	PhotoIcon: []Selector{
		css("img[alt='사진']"),
		css("button[title*='사진']"),
		css("a[title*='사진']"),
	},
	FileInput: []Selector{
		css("input[type='file'][name^='bf_file']"),
		css("input[type='file']"),
	},
	SecretCheckbox: []Selector{
		css("input[name='is_secret']"),
		css("input#is_secret"),
		xpath("//label[contains(.,'비밀글')]/input[@type='checkbox']"),
		xpath("//*[contains(text(),'비밀글')]/preceding::input[@type='checkbox'][1]"),
	},
	Submit: []Selector{
		css("input[type='submit'][value*='등록']"),
		css("button[type='submit']"),
		xpath("//button[contains(.,'등록') or contains(.,'글쓰기') or contains(.,'저장')]"),
		css("input[type='submit']"),
		css("#con_lf form .rbt_box a:last-child"),
	},
	WriteOnListing: []Selector{
		css("a.btn_write"),
		css("a[href*='write.php']"),
		xpath("//a[contains(.,'글쓰기')]"),
		xpath("//img[contains(@alt,'글쓰기')]/ancestor::a[1]"),
	},
	FormMarkers: []Selector{
		css("input[name='title']"),
		css("input#title"),
		css("input[name='wr_subject']"),
		css("textarea[name='contents']"),
		css("textarea#contents"),
		css("iframe[name='ir1']"),
		css("iframe[id^='se2_iframe']"),
	},
}

var mobileSelectors = ModeSelectors{
	Title: titleSelectors,
	BodyTextarea: []Selector{
		css("textarea[name='memo']"),
		css("textarea#memo"),
		css("textarea"),
	},
	BodyEditable: webSelectors.BodyEditable,
	BodyIframe: []Selector{
		css("iframe[name='ir1']"),
		css("div.editor iframe"),
	},
	FrameBody: webSelectors.FrameBody,
	PhotoIcon: webSelectors.PhotoIcon,
	FileInput: webSelectors.FileInput,
	SecretCheckbox: []Selector{
		css("input[name='is_secret']"),
		xpath("//label[contains(.,'비밀글')]/input[@type='checkbox']"),
	},
	Submit: []Selector{
		xpath("//button[contains(.,'글쓰기') or contains(.,'등록')]"),
		css("input[type='submit']"),
		css("button[type='submit']"),
	},
	WriteOnListing: []Selector{
		css("a.btn_write"),
		css("a[href*='board_write.php']"),
		css("a[href*='write.php']"),
		xpath("//a[contains(.,'글쓰기')]"),
		xpath("//img[contains(@alt,'글쓰기')]/ancestor::a[1]"),
	},
	FormMarkers: []Selector{
		css("input[name='title']"),
		css("input#title"),
		css("input[name='wr_subject']"),
		css("textarea[name='memo']"),
		css("textarea#memo"),
		css("iframe[name='ir1']"),
	},
}

var defaultLoginSelectors = LoginSelectors{
	LoginLink: []Selector{
		css("#tnb_inner > ul > li:nth-child(1) > a"),
		css("a[href*='login.php']"),
		xpath("//a[contains(.,'로그인')]"),
	},
	ID: []Selector{
		css("#login_id"),
		css("input[name='mb_id']"),
		css("input[name='id']"),
		css("input[name='user_id']"),
	},
	Password: []Selector{
		css("#login_pw"),
		css("input[name='mb_password']"),
		css("input[name='pw']"),
		css("input[type='password']"),
	},
	Submit: []Selector{
		css("form[name='flogin'] input[type=submit]"),
		css("form[name='flogin'] button"),
		css("button[type='submit']"),
		css("input[type='submit']"),
	},
}

// selectorsFor returns the fallback lists for a layout
func selectorsFor(mode Mode) ModeSelectors {
	if mode == ModeMobile {
		return mobileSelectors
	}
	return webSelectors
}
